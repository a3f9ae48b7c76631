package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/aurora-whatsapp-relay/internal/app/bootstrap"
	appconfig "github.com/wolfman30/aurora-whatsapp-relay/internal/config"
	"github.com/wolfman30/aurora-whatsapp-relay/internal/conversation"
	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

func main() {
	sender := flag.String("sender", "5500000000000@s.whatsapp.net", "sender id to converse as")
	flag.Parse()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	logger := logging.New("warn")

	messages := flag.Args()
	if len(messages) == 0 {
		messages = []string{"oi", "me chamo joão, quero saber o preço de um site"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	llm, closer, err := bootstrap.BuildLLMClient(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("❌ Failed to create completion client: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	store := conversation.NewStore(conversation.WithHistoryLimit(cfg.HistoryLimit))
	orch := bootstrap.BuildOrchestrator(cfg, store, llm, nil, logger)

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Relay smoke test (%s)\n", cfg.GeminiModel)
	fmt.Println(strings.Repeat("=", 60))

	for i, text := range messages {
		start := time.Now()
		reply, err := orch.HandleInboundMessage(ctx, *sender, text)
		if err != nil {
			fmt.Printf("\n[%d] ❌ %v\n", i+1, err)
			continue
		}
		fmt.Printf("\n[%d] Cliente: %s\n", i+1, text)
		fmt.Printf("    %s (%v):\n    %s\n", bootstrap.BuildPersona(cfg).AssistantName, time.Since(start).Round(time.Millisecond), reply.Text)
		fmt.Printf("    lead_score=%d name=%q fallback=%v cta=%v\n",
			reply.Record.LeadScore, reply.Record.DisplayName, reply.Fallback, reply.CallToAction)
	}
}
