package conversation

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

// ReplyHandler produces a reply for one inbound message.
type ReplyHandler interface {
	HandleInboundMessage(ctx context.Context, senderID, text string) (Reply, error)
}

// Worker consumes inbound jobs from the queue, generates replies and sends
// them through the messenger. Delivery is at-most-once.
type Worker struct {
	handler   ReplyHandler
	queue     *MemoryQueue
	messenger ReplyMessenger
	logger    *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

type workerConfig struct {
	workers       int
	delayMin      time.Duration
	delayMax      time.Duration
	typingTimeout time.Duration
	sendTimeout   time.Duration
}

const (
	defaultWorkerCount   = 2
	defaultTypingTimeout = 5 * time.Second
	defaultSendTimeout   = 15 * time.Second
)

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReplyDelay sets the random pause before generating a reply so answers
// do not arrive instantly. Zero disables it.
func WithReplyDelay(lo, hi time.Duration) WorkerOption {
	return func(cfg *workerConfig) {
		if lo < 0 {
			lo = 0
		}
		if hi < lo {
			hi = lo
		}
		cfg.delayMin = lo
		cfg.delayMax = hi
	}
}

// WithSendTimeout bounds each outbound gateway call.
func WithSendTimeout(d time.Duration) WorkerOption {
	return func(cfg *workerConfig) {
		if d > 0 {
			cfg.sendTimeout = d
		}
	}
}

// NewWorker constructs a queue consumer around the provided reply handler.
func NewWorker(handler ReplyHandler, queue *MemoryQueue, messenger ReplyMessenger, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if handler == nil {
		panic("conversation: reply handler cannot be nil")
	}
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if messenger == nil {
		panic("conversation: messenger cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := workerConfig{
		workers:       defaultWorkerCount,
		typingTimeout: defaultTypingTimeout,
		sendTimeout:   defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Worker{
		handler:   handler,
		queue:     queue,
		messenger: messenger,
		logger:    logger,
		cfg:       cfg,
	}
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("relay worker started", "worker_id", workerID)

	for {
		job, err := w.queue.Receive(ctx)
		if err != nil {
			w.logger.Debug("relay worker stopping", "worker_id", workerID)
			return
		}
		w.handleJob(ctx, job)
	}
}

func (w *Worker) handleJob(ctx context.Context, job InboundJob) {
	masked := MaskSender(job.SenderID)
	logger := w.logger.With("job_id", job.ID, "sender", masked)

	w.markTyping(ctx, job.SenderID)
	if err := w.pause(ctx); err != nil {
		logger.Warn("job abandoned during shutdown", "error", err)
		return
	}

	// A job that made it past the pause finishes even if shutdown starts.
	procCtx := context.WithoutCancel(ctx)
	reply, err := w.handler.HandleInboundMessage(procCtx, job.SenderID, job.Text)
	if err != nil {
		if !errors.Is(err, ErrEmptyMessage) {
			logger.Error("reply generation failed", "error", err)
		}
		return
	}

	sendCtx, cancel := context.WithTimeout(procCtx, w.cfg.sendTimeout)
	defer cancel()
	if err := w.messenger.SendReply(sendCtx, OutboundReply{
		JobID: job.ID,
		To:    job.SenderID,
		Body:  reply.Text,
	}); err != nil {
		logger.Error("reply delivery failed", "error", err)
		return
	}
	logger.Info("reply delivered",
		"lead_score", reply.Record.LeadScore,
		"fallback", reply.Fallback,
		"latency_ms", time.Since(job.ReceivedAt).Milliseconds(),
	)
}

func (w *Worker) markTyping(ctx context.Context, to string) {
	typingCtx, cancel := context.WithTimeout(ctx, w.cfg.typingTimeout)
	defer cancel()
	_ = w.messenger.MarkTyping(typingCtx, to)
}

func (w *Worker) pause(ctx context.Context) error {
	delay := w.cfg.delayMin
	if spread := w.cfg.delayMax - w.cfg.delayMin; spread > 0 {
		delay += time.Duration(rand.Int64N(int64(spread) + 1))
	}
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
