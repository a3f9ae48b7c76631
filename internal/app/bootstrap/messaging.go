package bootstrap

import (
	"fmt"

	appconfig "github.com/wolfman30/aurora-whatsapp-relay/internal/config"
	"github.com/wolfman30/aurora-whatsapp-relay/internal/messaging"
	"github.com/wolfman30/aurora-whatsapp-relay/internal/messaging/evolution"
	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

// BuildReplyMessenger creates the Evolution API client and wraps it as the
// worker's reply messenger.
func BuildReplyMessenger(cfg *appconfig.Config, observer messaging.OutboundObserver, logger *logging.Logger) (*messaging.EvolutionSender, *evolution.Client, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	client, err := evolution.New(evolution.Config{
		BaseURL:  cfg.EvolutionAPIURL,
		APIKey:   cfg.EvolutionAPIKey,
		Instance: cfg.EvolutionInstance,
		Timeout:  cfg.EvolutionTimeout,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: evolution client: %w", err)
	}
	if cfg.EvolutionAPIKey == "" {
		logger.Warn("EVOLUTION_API_KEY not set; gateway calls will likely be rejected")
	}
	return messaging.NewEvolutionSender(client, observer, logger), client, nil
}
