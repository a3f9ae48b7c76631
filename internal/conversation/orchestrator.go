package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

// ErrEmptyMessage signals that an inbound message carried no text and no
// action was taken.
var ErrEmptyMessage = errors.New("conversation: empty message")

const (
	// TechnicalFallbackReply is sent when the completion provider fails.
	TechnicalFallbackReply = "Ops, tive um probleminha técnico. Pode repetir sua mensagem? 🔧"
	// NotUnderstoodReply is sent when the provider returns blank text.
	NotUnderstoodReply = "Desculpe, pode repetir? Não entendi bem. 😅"

	defaultTemperature       float32 = 0.85
	defaultMaxOutputTokens   int32   = 300
	defaultContextTurns              = 10
	defaultLeadScoreThreshold        = 30
	defaultCompletionTimeout         = 30 * time.Second
)

// CompletionObserver records the outcome of each completion call.
type CompletionObserver interface {
	ObserveCompletion(status string, seconds float64)
}

// Reply is the outcome of handling one inbound message.
type Reply struct {
	Text         string
	Record       Record
	Fallback     bool
	CallToAction bool
}

type orchestratorConfig struct {
	persona       Persona
	temperature   float32
	maxTokens     int32
	contextTurns  int
	leadThreshold int
	timeout       time.Duration
	observer      CompletionObserver
	tracer        trace.Tracer
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*orchestratorConfig)

// WithPersona sets the persona used for the system prompt and call-to-action.
func WithPersona(p Persona) OrchestratorOption {
	return func(cfg *orchestratorConfig) {
		cfg.persona = p.withDefaults()
	}
}

// WithGenerationParams overrides temperature and the output token cap.
func WithGenerationParams(temperature float32, maxTokens int) OrchestratorOption {
	return func(cfg *orchestratorConfig) {
		cfg.temperature = temperature
		if maxTokens > 0 {
			cfg.maxTokens = int32(maxTokens)
		}
	}
}

// WithContextTurns sets how many recent turns are sent to the model.
func WithContextTurns(n int) OrchestratorOption {
	return func(cfg *orchestratorConfig) {
		if n > 0 {
			cfg.contextTurns = n
		}
	}
}

// WithLeadScoreThreshold sets the score at which the founder call-to-action kicks in.
func WithLeadScoreThreshold(score int) OrchestratorOption {
	return func(cfg *orchestratorConfig) {
		if score > 0 {
			cfg.leadThreshold = score
		}
	}
}

// WithCompletionTimeout bounds each completion call.
func WithCompletionTimeout(d time.Duration) OrchestratorOption {
	return func(cfg *orchestratorConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// WithCompletionObserver wires completion metrics.
func WithCompletionObserver(observer CompletionObserver) OrchestratorOption {
	return func(cfg *orchestratorConfig) {
		cfg.observer = observer
	}
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) OrchestratorOption {
	return func(cfg *orchestratorConfig) {
		if tracer != nil {
			cfg.tracer = tracer
		}
	}
}

// Orchestrator turns an inbound message into a reply using the store, the
// engagement heuristics and the completion provider.
type Orchestrator struct {
	store  *Store
	llm    LLMClient
	logger *logging.Logger
	cfg    orchestratorConfig
}

// NewOrchestrator wires an orchestrator around a store and completion client.
func NewOrchestrator(store *Store, llm LLMClient, logger *logging.Logger, opts ...OrchestratorOption) *Orchestrator {
	if store == nil {
		panic("conversation: store cannot be nil")
	}
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := orchestratorConfig{
		persona:       DefaultPersona(),
		temperature:   defaultTemperature,
		maxTokens:     defaultMaxOutputTokens,
		contextTurns:  defaultContextTurns,
		leadThreshold: defaultLeadScoreThreshold,
		timeout:       defaultCompletionTimeout,
		tracer:        otel.Tracer("aurora.internal.conversation.orchestrator"),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Orchestrator{
		store:  store,
		llm:    llm,
		logger: logger,
		cfg:    cfg,
	}
}

// HandleInboundMessage records the user's message, asks the model for a reply
// and records that reply. Provider failures become fallback text; the only
// error returned is ErrEmptyMessage.
func (o *Orchestrator) HandleInboundMessage(ctx context.Context, senderID, text string) (Reply, error) {
	if strings.TrimSpace(text) == "" {
		return Reply{}, ErrEmptyMessage
	}
	if ctx == nil {
		ctx = context.Background()
	}
	masked := MaskSender(senderID)

	rec := o.store.Append(senderID, ChatRoleUser, text)
	if rec.DisplayName == "" {
		if name, ok := DetectName(text, false); ok {
			updated, set := o.store.SetDisplayName(senderID, name)
			if set {
				o.logger.Info("customer name detected", "sender", masked, "name", name)
			}
			rec = updated
		}
	}

	ctx, span := o.cfg.tracer.Start(ctx, "conversation.generate_reply")
	defer span.End()

	turns := rec.Recent(o.cfg.contextTurns)
	span.SetAttributes(
		attribute.Int("conversation.lead_score", rec.LeadScore),
		attribute.Int("conversation.context_turns", len(turns)),
		attribute.Bool("conversation.name_known", rec.DisplayName != ""),
	)

	req := LLMRequest{
		System:      []string{SystemPrompt(o.cfg.persona, rec.DisplayName)},
		Messages:    toChatMessages(turns),
		MaxTokens:   o.cfg.maxTokens,
		Temperature: o.cfg.temperature,
	}

	reply := Reply{}
	resp, err := o.complete(ctx, req)
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		o.logger.Error("completion failed, sending fallback", "sender", masked, "error", err)
		reply.Text = TechnicalFallbackReply
		reply.Fallback = true
	case strings.TrimSpace(resp.Text) == "":
		o.logger.Warn("completion returned empty text", "sender", masked, "stop_reason", resp.StopReason)
		reply.Text = NotUnderstoodReply
		reply.Fallback = true
	default:
		reply.Text = strings.TrimSpace(resp.Text)
		if rec.LeadScore >= o.cfg.leadThreshold && !mentionsFounder(reply.Text, o.cfg.persona.FounderName) {
			reply.Text += FounderCallToAction(o.cfg.persona)
			reply.CallToAction = true
		}
	}

	reply.Record = o.store.Append(senderID, ChatRoleAssistant, reply.Text)
	o.logger.Debug("reply generated",
		"sender", masked,
		"lead_score", reply.Record.LeadScore,
		"fallback", reply.Fallback,
		"call_to_action", reply.CallToAction,
	)
	return reply, nil
}

func (o *Orchestrator) complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.llm.Complete(ctx, req)
	if o.cfg.observer != nil {
		status := "ok"
		if err != nil {
			status = "error"
		} else if strings.TrimSpace(resp.Text) == "" {
			status = "empty"
		}
		o.cfg.observer.ObserveCompletion(status, time.Since(start).Seconds())
	}
	return resp, err
}

func toChatMessages(turns []Turn) []ChatMessage {
	out := make([]ChatMessage, 0, len(turns))
	for _, t := range turns {
		out = append(out, ChatMessage{Role: t.Role, Content: t.Text})
	}
	return out
}

func mentionsFounder(text, founder string) bool {
	founder = strings.TrimSpace(founder)
	if founder == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(founder))
}
