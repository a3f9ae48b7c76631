package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/aurora-whatsapp-relay/internal/config"
	"github.com/wolfman30/aurora-whatsapp-relay/internal/conversation"
	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

// LoadAWSConfig builds the SDK config from the relay's AWS settings. Static
// credentials win over the default chain when both halves are set.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, loaders...)
}

// BuildBedrockClient wires the optional secondary completion provider. It
// returns nil when no Bedrock model is configured.
func BuildBedrockClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (conversation.LLMClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	model := strings.TrimSpace(cfg.BedrockModelID)
	if model == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
	}
	var optFns []func(*bedrockruntime.Options)
	if endpoint := strings.TrimSpace(cfg.AWSEndpointOverride); endpoint != "" {
		optFns = append(optFns, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	client := bedrockruntime.NewFromConfig(awsCfg, optFns...)

	logger.Info("bedrock secondary provider enabled", "model", model, "region", cfg.AWSRegion)
	return conversation.NewBedrockLLMClient(client, model), nil
}
