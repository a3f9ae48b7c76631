package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/aurora-whatsapp-relay/internal/conversation"
	"github.com/wolfman30/aurora-whatsapp-relay/internal/messaging/evolution"
	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

var evolutionSendTracer = otel.Tracer("aurora.internal.messaging.evolution_send")

// Outbound send outcomes reported to the observer.
const (
	OutboundStatusSent   = "sent"
	OutboundStatusFailed = "failed"
)

// OutboundObserver records the outcome of each reply delivery.
type OutboundObserver interface {
	ObserveOutbound(status string)
}

type evolutionAPI interface {
	SendText(ctx context.Context, req evolution.SendTextRequest) (*evolution.SendTextResponse, error)
	SendPresence(ctx context.Context, number, presence string) error
}

// EvolutionSender delivers replies through the Evolution API gateway.
type EvolutionSender struct {
	client   evolutionAPI
	observer OutboundObserver
	logger   *logging.Logger
}

// NewEvolutionSender wraps an Evolution client as a ReplyMessenger.
func NewEvolutionSender(client evolutionAPI, observer OutboundObserver, logger *logging.Logger) *EvolutionSender {
	if client == nil {
		panic("messaging: evolution client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EvolutionSender{client: client, observer: observer, logger: logger}
}

var _ conversation.ReplyMessenger = (*EvolutionSender)(nil)

// SendReply posts a single text message. Failures are returned, not retried.
func (s *EvolutionSender) SendReply(ctx context.Context, msg conversation.OutboundReply) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("messaging: to required")
	}

	ctx, span := evolutionSendTracer.Start(ctx, "messaging.evolution.send_text")
	defer span.End()
	span.SetAttributes(
		attribute.String("relay.job_id", msg.JobID),
		attribute.Int("relay.body_length", len(msg.Body)),
	)

	resp, err := s.client.SendText(ctx, evolution.SendTextRequest{Number: msg.To, Text: msg.Body})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		s.observe(OutboundStatusFailed)
		return fmt.Errorf("messaging: evolution send: %w", err)
	}
	s.observe(OutboundStatusSent)
	s.logger.Debug("evolution message accepted",
		"job_id", msg.JobID,
		"to", conversation.MaskSender(msg.To),
		"message_id", resp.Key.ID,
		"status", resp.Status,
	)
	return nil
}

// MarkTyping shows the composing indicator to the customer.
func (s *EvolutionSender) MarkTyping(ctx context.Context, to string) error {
	if err := s.client.SendPresence(ctx, to, evolution.PresenceComposing); err != nil {
		s.logger.Debug("typing presence failed", "to", conversation.MaskSender(to), "error", err)
		return err
	}
	return nil
}

func (s *EvolutionSender) observe(status string) {
	if s.observer != nil {
		s.observer.ObserveOutbound(status)
	}
}
