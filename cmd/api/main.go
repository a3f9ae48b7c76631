package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/aurora-whatsapp-relay/internal/api/router"
	"github.com/wolfman30/aurora-whatsapp-relay/internal/app/bootstrap"
	appconfig "github.com/wolfman30/aurora-whatsapp-relay/internal/config"
	"github.com/wolfman30/aurora-whatsapp-relay/internal/conversation"
	"github.com/wolfman30/aurora-whatsapp-relay/internal/http/handlers"
	"github.com/wolfman30/aurora-whatsapp-relay/internal/observability/metrics"
	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	startedAt := time.Now()
	workCtx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()

	// Conversation state and observability
	store := conversation.NewStore(conversation.WithHistoryLimit(cfg.HistoryLimit))
	metricsHandler, relayMetrics := setupRelayMetrics(store)

	// Completion providers
	llm, llmCloser, err := bootstrap.BuildLLMClient(workCtx, cfg, logger)
	if err != nil {
		logger.Error("failed to build completion client", "error", err)
		os.Exit(1)
	}
	defer llmCloser.Close()
	orchestrator := bootstrap.BuildOrchestrator(cfg, store, llm, relayMetrics, logger)

	// Outbound gateway and inline worker
	sender, evolutionClient, err := bootstrap.BuildReplyMessenger(cfg, relayMetrics, logger)
	if err != nil {
		logger.Error("failed to build evolution client", "error", err)
		os.Exit(1)
	}
	queue := conversation.NewMemoryQueue(cfg.QueueBuffer)
	worker := bootstrap.BuildWorker(cfg, orchestrator, queue, sender, logger)
	worker.Start(workCtx)

	sweeper := conversation.NewSweeper(store, cfg.SweepInterval, cfg.ConversationMaxIdle, relayMetrics, logger)
	sweeper.Start(workCtx)

	// Webhook dedup
	redisClient := bootstrap.BuildRedisClient(workCtx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	tracker := bootstrap.BuildProcessedTracker(redisClient, logger)

	// Setup router
	routerCfg := &router.Config{
		Logger: logger,
		Webhook: handlers.NewEvolutionWebhookHandler(handlers.EvolutionWebhookConfig{
			Queue:     queue,
			Processed: tracker,
			Metrics:   relayMetrics,
			Logger:    logger,
		}),
		Status: handlers.NewStatusHandler(handlers.StatusConfig{
			Store:      store,
			Instance:   evolutionClient.Instance(),
			GatewayURL: evolutionClient.BaseURL(),
			StartedAt:  startedAt,
		}),
		MetricsHandler: metricsHandler,
	}
	srv := newHTTPServer(cfg, router.New(routerCfg))

	// Start server in a goroutine
	go func() {
		persona := bootstrap.BuildPersona(cfg)
		logger.Info("whatsapp relay online",
			"assistant", persona.AssistantName,
			"company", persona.CompanyName,
			"instance", evolutionClient.Instance(),
			"addr", srv.Addr,
			"webhook", "POST /webhook",
			"workers", cfg.WorkerCount,
			"env", cfg.Env,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	cancelWork()
	worker.Wait()
	sweeper.Wait()
	if pending := queue.Len(); pending > 0 {
		logger.Warn("queued messages dropped at shutdown", "pending", pending)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupRelayMetrics builds a dedicated registry with runtime collectors, the
// relay counters and the live conversation gauge.
func setupRelayMetrics(store *conversation.Store) (http.Handler, *metrics.RelayMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	relayMetrics := metrics.NewRelayMetrics(reg)
	if store != nil {
		relayMetrics.RegisterConversationGauge(store.Len)
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), relayMetrics
}

func newHTTPServer(cfg *appconfig.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
