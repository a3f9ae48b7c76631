package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "GEMINI_API_KEY", "GEMINI_MODEL", "LLM_TEMPERATURE",
		"LLM_MAX_OUTPUT_TOKENS", "EVOLUTION_API_URL", "EVOLUTION_INSTANCE", "FOUNDER_NAME",
		"HISTORY_LIMIT", "SWEEP_INTERVAL", "CONVERSATION_MAX_IDLE", "BEDROCK_MODEL_ID", "REDIS_ADDR",
	} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "10000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.LLMTemperature != 0.85 {
		t.Fatalf("expected default temperature 0.85, got %v", cfg.LLMTemperature)
	}
	if cfg.LLMMaxOutputTokens != 300 {
		t.Fatalf("expected default max tokens 300, got %d", cfg.LLMMaxOutputTokens)
	}
	if cfg.EvolutionInstance != "chatbot-vendas" {
		t.Fatalf("expected default instance, got %s", cfg.EvolutionInstance)
	}
	if cfg.FounderName != "Rubens" {
		t.Fatalf("expected default founder, got %s", cfg.FounderName)
	}
	if cfg.HistoryLimit != 20 || cfg.ContextTurns != 10 || cfg.LeadScoreThreshold != 30 {
		t.Fatalf("unexpected store defaults: %+v", cfg)
	}
	if cfg.SweepInterval != time.Hour {
		t.Fatalf("expected hourly sweep, got %s", cfg.SweepInterval)
	}
	if cfg.ConversationMaxIdle != 24*time.Hour {
		t.Fatalf("expected 24h max idle, got %s", cfg.ConversationMaxIdle)
	}
	if cfg.BedrockModelID != "" || cfg.RedisAddr != "" {
		t.Fatalf("expected optional integrations disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("GEMINI_API_KEY", "key-123")
	t.Setenv("LLM_TEMPERATURE", "0.5")
	t.Setenv("LLM_TIMEOUT", "12s")
	t.Setenv("EVOLUTION_API_URL", "http://evolution.local/")
	t.Setenv("FOUNDER_NAME", "Marina")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("REPLY_DELAY_MIN", "0s")
	t.Setenv("REPLY_DELAY_MAX", "250ms")
	t.Setenv("REDIS_TLS", "true")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.LLMTemperature != 0.5 {
		t.Fatalf("expected temperature override, got %v", cfg.LLMTemperature)
	}
	if cfg.LLMTimeout != 12*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.LLMTimeout)
	}
	if cfg.EvolutionAPIURL != "http://evolution.local" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.EvolutionAPIURL)
	}
	if cfg.FounderName != "Marina" {
		t.Fatalf("expected founder override, got %s", cfg.FounderName)
	}
	if cfg.WorkerCount != 8 {
		t.Fatalf("expected worker override, got %d", cfg.WorkerCount)
	}
	if cfg.ReplyDelayMin != 0 || cfg.ReplyDelayMax != 250*time.Millisecond {
		t.Fatalf("unexpected delay overrides %s-%s", cfg.ReplyDelayMin, cfg.ReplyDelayMax)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("WORKER_COUNT", "many")
	t.Setenv("LLM_TEMPERATURE", "hot")
	t.Setenv("SWEEP_INTERVAL", "hourly")
	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Fatalf("expected default worker count, got %d", cfg.WorkerCount)
	}
	if cfg.LLMTemperature != 0.85 {
		t.Fatalf("expected default temperature, got %v", cfg.LLMTemperature)
	}
	if cfg.SweepInterval != time.Hour {
		t.Fatalf("expected default sweep interval, got %s", cfg.SweepInterval)
	}
}

func TestValidateRequiresGeminiKey(t *testing.T) {
	cfg := &Config{GeminiAPIKey: "  "}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestValidateRejectsInvertedDelay(t *testing.T) {
	cfg := &Config{GeminiAPIKey: "k", ReplyDelayMin: 2 * time.Second, ReplyDelayMax: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected delay range error")
	}
}
