package conversation

import (
	"context"

	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

// FallbackLLMClient sends each request to the primary provider and, only if
// that fails, once to the secondary provider.
type FallbackLLMClient struct {
	primary   LLMClient
	secondary LLMClient
	logger    *logging.Logger
}

// NewFallbackLLMClient chains two providers. A nil secondary makes the client
// a pass-through to primary.
func NewFallbackLLMClient(primary, secondary LLMClient, logger *logging.Logger) *FallbackLLMClient {
	if primary == nil {
		panic("conversation: primary llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil || c.secondary == nil {
		return resp, err
	}
	if ctx.Err() != nil {
		return LLMResponse{}, err
	}

	c.logger.Warn("primary completion failed, trying secondary provider", "error", err)
	secondaryResp, secondaryErr := c.secondary.Complete(ctx, req)
	if secondaryErr != nil {
		c.logger.Error("secondary completion also failed",
			"primary_error", err.Error(),
			"secondary_error", secondaryErr.Error(),
		)
		return LLMResponse{}, secondaryErr
	}
	return secondaryResp, nil
}
