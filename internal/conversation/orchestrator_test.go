package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

type scriptedLLM struct {
	mu        sync.Mutex
	responses []LLMResponse
	errs      []error
	requests  []LLMRequest
	block     chan struct{}
}

func (s *scriptedLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return LLMResponse{}, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := len(s.requests)
	s.requests = append(s.requests, req)
	if idx < len(s.errs) && s.errs[idx] != nil {
		return LLMResponse{}, s.errs[idx]
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	if len(s.responses) > 0 {
		return s.responses[len(s.responses)-1], nil
	}
	return LLMResponse{Text: "Como posso ajudar?"}, nil
}

func (s *scriptedLLM) lastRequest(t *testing.T) LLMRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests)
	return s.requests[len(s.requests)-1]
}

type recordingObserver struct {
	mu       sync.Mutex
	statuses []string
}

func (r *recordingObserver) ObserveCompletion(status string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func newTestOrchestrator(llm LLMClient, opts ...OrchestratorOption) (*Orchestrator, *Store) {
	store := NewStore()
	return NewOrchestrator(store, llm, logging.New("error"), opts...), store
}

func TestHandleInboundMessageEmptyText(t *testing.T) {
	llm := &scriptedLLM{}
	orch, store := newTestOrchestrator(llm)

	_, err := orch.HandleInboundMessage(context.Background(), "sender", "   \n")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, store.Len(), "store untouched")
	assert.Empty(t, llm.requests)
}

func TestHandleInboundMessageNameScoreAndCallToAction(t *testing.T) {
	llm := &scriptedLLM{responses: []LLMResponse{
		{Text: "Oi! Tudo ótimo por aqui 😊"},
		{Text: "Claro, João! Nossos sites começam em valores acessíveis."},
	}}
	orch, store := newTestOrchestrator(llm)
	ctx := context.Background()

	first, err := orch.HandleInboundMessage(ctx, "X", "oi")
	require.NoError(t, err)
	assert.Empty(t, first.Record.DisplayName)
	assert.Zero(t, first.Record.LeadScore)
	assert.False(t, first.CallToAction)

	second, err := orch.HandleInboundMessage(ctx, "X", "joão quero saber o preço")
	require.NoError(t, err)
	assert.Equal(t, "João", second.Record.DisplayName)
	assert.Equal(t, 30, second.Record.LeadScore)
	assert.True(t, second.CallToAction)
	assert.True(t, strings.HasSuffix(second.Text, FounderCallToAction(DefaultPersona())))
	assert.True(t, strings.HasPrefix(second.Text, "Claro, João!"))

	rec := store.Get("X")
	require.Len(t, rec.History, 4)
	assert.Equal(t, ChatRoleAssistant, rec.History[3].Role)
	assert.Equal(t, second.Text, rec.History[3].Text)

	// The name is known before the model is called on the same turn.
	req := llm.lastRequest(t)
	require.Len(t, req.System, 1)
	assert.Contains(t, req.System[0], "Cliente: João")
	assert.NotContains(t, req.System[0], "Descubra o nome")
}

func TestHandleInboundMessageRequestShape(t *testing.T) {
	llm := &scriptedLLM{}
	orch, _ := newTestOrchestrator(llm)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := orch.HandleInboundMessage(ctx, "sender", fmt.Sprintf("mensagem número %d sem nome nenhum aqui, ok? 1 com texto extra", i))
		require.NoError(t, err)
	}

	req := llm.lastRequest(t)
	assert.InDelta(t, 0.85, req.Temperature, 0.0001)
	assert.Equal(t, int32(300), req.MaxTokens)
	assert.Contains(t, req.System[0], "Descubra o nome do cliente naturalmente.")
	require.Len(t, req.Messages, 10)
	last := req.Messages[len(req.Messages)-1]
	assert.Equal(t, ChatRoleUser, last.Role)
	assert.Contains(t, last.Content, "número 6")
	assert.Equal(t, ChatRoleAssistant, req.Messages[len(req.Messages)-2].Role)
}

func TestHandleInboundMessageCompletionError(t *testing.T) {
	llm := &scriptedLLM{errs: []error{errors.New("quota exceeded")}}
	observer := &recordingObserver{}
	orch, store := newTestOrchestrator(llm, WithCompletionObserver(observer))

	reply, err := orch.HandleInboundMessage(context.Background(), "sender", "quero contratar, qual o preço?")
	require.NoError(t, err)
	assert.Equal(t, TechnicalFallbackReply, reply.Text)
	assert.True(t, reply.Fallback)
	assert.False(t, reply.CallToAction, "fallback text is sent as-is")

	rec := store.Get("sender")
	require.Len(t, rec.History, 2)
	assert.Equal(t, TechnicalFallbackReply, rec.History[1].Text)
	assert.Equal(t, []string{"error"}, observer.statuses)
}

func TestHandleInboundMessageBlankCompletion(t *testing.T) {
	llm := &scriptedLLM{responses: []LLMResponse{{Text: "  \n "}}}
	observer := &recordingObserver{}
	orch, store := newTestOrchestrator(llm, WithCompletionObserver(observer))

	reply, err := orch.HandleInboundMessage(context.Background(), "sender", "hmm")
	require.NoError(t, err)
	assert.Equal(t, NotUnderstoodReply, reply.Text)
	assert.True(t, reply.Fallback)
	assert.Equal(t, NotUnderstoodReply, store.Get("sender").History[1].Text)
	assert.Equal(t, []string{"empty"}, observer.statuses)
}

func TestHandleInboundMessageSkipsCallToActionWhenFounderMentioned(t *testing.T) {
	llm := &scriptedLLM{responses: []LLMResponse{{Text: "Posso te conectar com o RUBENS agora mesmo!"}}}
	orch, _ := newTestOrchestrator(llm)

	reply, err := orch.HandleInboundMessage(context.Background(), "sender", "quero saber o preço")
	require.NoError(t, err)
	assert.Equal(t, 30, reply.Record.LeadScore)
	assert.False(t, reply.CallToAction)
	assert.Equal(t, "Posso te conectar com o RUBENS agora mesmo!", reply.Text)
}

func TestHandleInboundMessageBelowThresholdNoCallToAction(t *testing.T) {
	llm := &scriptedLLM{responses: []LLMResponse{{Text: "Temos vários planos!"}}}
	orch, _ := newTestOrchestrator(llm)

	reply, err := orch.HandleInboundMessage(context.Background(), "sender", "qual o valor?")
	require.NoError(t, err)
	assert.Equal(t, 10, reply.Record.LeadScore)
	assert.False(t, reply.CallToAction)
	assert.Equal(t, "Temos vários planos!", reply.Text)
}

func TestHandleInboundMessageDisplayNameNeverOverwritten(t *testing.T) {
	llm := &scriptedLLM{}
	orch, store := newTestOrchestrator(llm)
	ctx := context.Background()

	_, err := orch.HandleInboundMessage(ctx, "sender", "oi marcos")
	require.NoError(t, err)
	_, err = orch.HandleInboundMessage(ctx, "sender", "sou pedro")
	require.NoError(t, err)

	assert.Equal(t, "Marcos", store.Get("sender").DisplayName)
}

func TestHandleInboundMessageCustomPersona(t *testing.T) {
	llm := &scriptedLLM{responses: []LLMResponse{{Text: "Vamos lá!"}}}
	persona := Persona{AssistantName: "Luna", CompanyName: "Acme", FounderName: "Marina"}
	orch, _ := newTestOrchestrator(llm, WithPersona(persona), WithLeadScoreThreshold(20))

	reply, err := orch.HandleInboundMessage(context.Background(), "sender", "preciso de ajuda")
	require.NoError(t, err)
	assert.True(t, reply.CallToAction)
	assert.Contains(t, reply.Text, "Marina, nosso fundador")
	assert.Contains(t, llm.lastRequest(t).System[0], "Você é a Luna, Consultora Estratégica da Acme.")
}

func TestHandleInboundMessageTimeoutFallsBack(t *testing.T) {
	llm := &scriptedLLM{block: make(chan struct{})}
	orch, _ := newTestOrchestrator(llm, WithCompletionTimeout(20*time.Millisecond))

	reply, err := orch.HandleInboundMessage(context.Background(), "sender", "oi")
	require.NoError(t, err)
	assert.Equal(t, TechnicalFallbackReply, reply.Text)
}

func TestHandleInboundMessageDoesNotBlockOtherSenders(t *testing.T) {
	release := make(chan struct{})
	llm := &scriptedLLM{block: release}
	orch, store := newTestOrchestrator(llm)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = orch.HandleInboundMessage(context.Background(), "slow", "oi")
	}()

	// While the completion is in flight the store stays usable.
	require.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)
	store.Append("other", ChatRoleUser, "quero")
	assert.Equal(t, 20, store.Get("other").LeadScore)
	assert.Len(t, store.Get("slow").History, 1)

	close(release)
	<-done
	assert.Len(t, store.Get("slow").History, 2)
}
