package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wolfman30/aurora-whatsapp-relay/internal/conversation"
	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

const (
	evolutionProvider   = "evolution"
	eventMessagesUpsert = "messages.upsert"
	personalJIDSuffix   = "@s.whatsapp.net"
	maxWebhookBody      = 1 << 20
)

// Inbound outcomes reported to the observer.
const (
	inboundAccepted     = "accepted"
	inboundIgnoredEvent = "ignored_event"
	inboundFromMe       = "from_me"
	inboundNotPersonal  = "not_personal"
	inboundNoText       = "no_text"
	inboundDuplicate    = "duplicate"
	inboundQueueFull    = "queue_full"
	inboundInvalid      = "invalid"
)

type processedTracker interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

type jobEnqueuer interface {
	TrySend(job conversation.InboundJob) (conversation.InboundJob, error)
}

type inboundObserver interface {
	ObserveInbound(event, status string)
}

// EvolutionWebhookConfig wires the webhook handler.
type EvolutionWebhookConfig struct {
	Queue     jobEnqueuer
	Processed processedTracker
	Metrics   inboundObserver
	Logger    *logging.Logger
}

// EvolutionWebhookHandler accepts Evolution API webhooks and enqueues inbound
// customer text messages for the reply worker.
type EvolutionWebhookHandler struct {
	queue     jobEnqueuer
	processed processedTracker
	metrics   inboundObserver
	logger    *logging.Logger
}

func NewEvolutionWebhookHandler(cfg EvolutionWebhookConfig) *EvolutionWebhookHandler {
	if cfg.Queue == nil {
		panic("handlers: queue required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &EvolutionWebhookHandler{
		queue:     cfg.Queue,
		processed: cfg.Processed,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

// inboundText is one customer message extracted from a webhook.
type inboundText struct {
	MessageID string
	SenderID  string
	Text      string
}

// Handle always acknowledges with 200. Dropped events are logged and counted.
func (h *EvolutionWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil || !gjson.ValidBytes(body) {
		h.logger.Warn("unreadable evolution webhook", "error", err)
		h.observe("unknown", inboundInvalid)
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	event := normalizeEvent(gjson.GetBytes(body, "event").String())
	if event != eventMessagesUpsert {
		h.observe(event, inboundIgnoredEvent)
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	data := gjson.GetBytes(body, "data")
	items := []gjson.Result{data}
	if data.IsArray() {
		items = data.Array()
	}
	for _, item := range items {
		msg, status := extractInboundText(item)
		if status != inboundAccepted {
			h.observe(event, status)
			continue
		}
		h.observe(event, h.enqueue(r.Context(), msg))
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *EvolutionWebhookHandler) enqueue(ctx context.Context, msg inboundText) string {
	masked := conversation.MaskSender(msg.SenderID)
	if h.processed != nil && msg.MessageID != "" {
		fresh, err := h.processed.MarkProcessed(ctx, evolutionProvider, msg.MessageID)
		switch {
		case err != nil:
			// Fail open.
			h.logger.Warn("processed tracker unavailable", "error", err, "message_id", msg.MessageID)
		case !fresh:
			h.logger.Info("duplicate webhook delivery dropped", "message_id", msg.MessageID, "sender", masked)
			return inboundDuplicate
		}
	}

	job, err := h.queue.TrySend(conversation.InboundJob{
		MessageID: msg.MessageID,
		SenderID:  msg.SenderID,
		Text:      msg.Text,
	})
	if err != nil {
		if errors.Is(err, conversation.ErrQueueFull) {
			h.logger.Error("reply queue full, message dropped", "sender", masked, "message_id", msg.MessageID)
			return inboundQueueFull
		}
		h.logger.Error("enqueue failed", "error", err, "sender", masked)
		return inboundInvalid
	}
	h.logger.Info("inbound message accepted",
		"job_id", job.ID,
		"message_id", msg.MessageID,
		"sender", masked,
		"length", len([]rune(msg.Text)),
	)
	return inboundAccepted
}

func (h *EvolutionWebhookHandler) observe(event, status string) {
	if h.metrics == nil {
		return
	}
	if event == "" {
		event = "unknown"
	}
	h.metrics.ObserveInbound(event, status)
}

// normalizeEvent maps both "MESSAGES_UPSERT" and "messages.upsert" to the
// dotted lowercase form.
func normalizeEvent(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", ".")
}

// extractInboundText pulls the sender, message id and text from one
// messages.upsert item. The key normally sits beside the message content,
// but some gateway versions nest it under "message".
func extractInboundText(item gjson.Result) (inboundText, string) {
	if !item.IsObject() {
		return inboundText{}, inboundInvalid
	}
	key := item.Get("key")
	content := item.Get("message")
	if !key.Exists() && content.Get("key").Exists() {
		key = content.Get("key")
		content = content.Get("message")
	}

	if key.Get("fromMe").Bool() {
		return inboundText{}, inboundFromMe
	}
	jid := strings.TrimSpace(key.Get("remoteJid").String())
	if !strings.HasSuffix(jid, personalJIDSuffix) {
		return inboundText{}, inboundNotPersonal
	}

	var text string
	for _, path := range []string{"conversation", "extendedTextMessage.text", "imageMessage.caption"} {
		if v := strings.TrimSpace(content.Get(path).String()); v != "" {
			text = v
			break
		}
	}
	if text == "" {
		return inboundText{}, inboundNoText
	}
	return inboundText{
		MessageID: strings.TrimSpace(key.Get("id").String()),
		SenderID:  jid,
		Text:      text,
	}, inboundAccepted
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
