package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Gemini completion
	GeminiAPIKey       string
	GeminiModel        string
	LLMTemperature     float32
	LLMMaxOutputTokens int
	LLMTimeout         time.Duration

	// Evolution API (WhatsApp gateway)
	EvolutionAPIURL   string
	EvolutionAPIKey   string
	EvolutionInstance string
	EvolutionTimeout  time.Duration

	// Persona used in the system prompt and call-to-action
	AssistantName string
	CompanyName   string
	FounderName   string

	// Conversation store
	HistoryLimit        int
	ContextTurns        int
	LeadScoreThreshold  int
	SweepInterval       time.Duration
	ConversationMaxIdle time.Duration

	// Inline worker
	WorkerCount   int
	QueueBuffer   int
	ReplyDelayMin time.Duration
	ReplyDelayMax time.Duration

	// Optional Redis for webhook delivery dedup
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Optional Bedrock secondary completion provider
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	BedrockModelID      string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "10000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		LLMTemperature:     getEnvAsFloat32("LLM_TEMPERATURE", 0.85),
		LLMMaxOutputTokens: getEnvAsInt("LLM_MAX_OUTPUT_TOKENS", 300),
		LLMTimeout:         getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),

		EvolutionAPIURL:   strings.TrimRight(getEnv("EVOLUTION_API_URL", "https://evolution-api-kvw7.onrender.com"), "/"),
		EvolutionAPIKey:   getEnv("EVOLUTION_API_KEY", ""),
		EvolutionInstance: getEnv("EVOLUTION_INSTANCE", "chatbot-vendas"),
		EvolutionTimeout:  getEnvAsDuration("EVOLUTION_TIMEOUT", 10*time.Second),

		AssistantName: getEnv("ASSISTANT_NAME", "Aurora"),
		CompanyName:   getEnv("COMPANY_NAME", "Make IA"),
		FounderName:   getEnv("FOUNDER_NAME", "Rubens"),

		HistoryLimit:        getEnvAsInt("HISTORY_LIMIT", 20),
		ContextTurns:        getEnvAsInt("CONTEXT_TURNS", 10),
		LeadScoreThreshold:  getEnvAsInt("LEAD_SCORE_THRESHOLD", 30),
		SweepInterval:       getEnvAsDuration("SWEEP_INTERVAL", time.Hour),
		ConversationMaxIdle: getEnvAsDuration("CONVERSATION_MAX_IDLE", 24*time.Hour),

		WorkerCount:   getEnvAsInt("WORKER_COUNT", 4),
		QueueBuffer:   getEnvAsInt("QUEUE_BUFFER", 256),
		ReplyDelayMin: getEnvAsDuration("REPLY_DELAY_MIN", time.Second),
		ReplyDelayMax: getEnvAsDuration("REPLY_DELAY_MAX", 3*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
	}
}

// Validate reports configuration that must be present before serving traffic.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return errors.New("config: GEMINI_API_KEY is required")
	}
	if c.ReplyDelayMax < c.ReplyDelayMin {
		return errors.New("config: REPLY_DELAY_MAX must not be lower than REPLY_DELAY_MIN")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
