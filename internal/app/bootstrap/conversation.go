package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"

	appconfig "github.com/wolfman30/aurora-whatsapp-relay/internal/config"
	"github.com/wolfman30/aurora-whatsapp-relay/internal/conversation"
	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

// BuildLLMClient wires Gemini as the primary completion provider, chained to
// the optional Bedrock secondary. The returned closer releases the Gemini
// client.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (conversation.LLMClient, io.Closer, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	gemini, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: gemini client: %w", err)
	}

	secondary, err := BuildBedrockClient(ctx, cfg, logger)
	if err != nil {
		logger.Warn("bedrock secondary provider unavailable", "error", err)
		secondary = nil
	}
	if secondary == nil {
		logger.Info("using gemini completion provider", "model", cfg.GeminiModel)
		return gemini, gemini, nil
	}
	logger.Info("using gemini with bedrock fallback", "model", cfg.GeminiModel, "fallback_model", cfg.BedrockModelID)
	return conversation.NewFallbackLLMClient(gemini, secondary, logger), gemini, nil
}

// BuildPersona maps the persona settings onto the prompt persona.
func BuildPersona(cfg *appconfig.Config) conversation.Persona {
	p := conversation.DefaultPersona()
	if cfg == nil {
		return p
	}
	if v := strings.TrimSpace(cfg.AssistantName); v != "" {
		p.AssistantName = v
	}
	if v := strings.TrimSpace(cfg.CompanyName); v != "" {
		p.CompanyName = v
	}
	if v := strings.TrimSpace(cfg.FounderName); v != "" {
		p.FounderName = v
	}
	return p
}

// BuildOrchestrator wires the reply orchestrator over an existing store.
func BuildOrchestrator(cfg *appconfig.Config, store *conversation.Store, llm conversation.LLMClient, observer conversation.CompletionObserver, logger *logging.Logger) *conversation.Orchestrator {
	opts := []conversation.OrchestratorOption{
		conversation.WithPersona(BuildPersona(cfg)),
		conversation.WithGenerationParams(cfg.LLMTemperature, cfg.LLMMaxOutputTokens),
		conversation.WithContextTurns(cfg.ContextTurns),
		conversation.WithLeadScoreThreshold(cfg.LeadScoreThreshold),
		conversation.WithCompletionTimeout(cfg.LLMTimeout),
	}
	if observer != nil {
		opts = append(opts, conversation.WithCompletionObserver(observer))
	}
	return conversation.NewOrchestrator(store, llm, logger, opts...)
}

// BuildWorker wires the inline reply worker around the queue.
func BuildWorker(cfg *appconfig.Config, handler conversation.ReplyHandler, queue *conversation.MemoryQueue, messenger conversation.ReplyMessenger, logger *logging.Logger) *conversation.Worker {
	return conversation.NewWorker(handler, queue, messenger, logger,
		conversation.WithWorkerCount(cfg.WorkerCount),
		conversation.WithReplyDelay(cfg.ReplyDelayMin, cfg.ReplyDelayMax),
		conversation.WithSendTimeout(cfg.EvolutionTimeout),
	)
}
