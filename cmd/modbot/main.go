package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pvlima/modbot/internal/agent"
	"github.com/pvlima/modbot/internal/config"
	"github.com/pvlima/modbot/internal/llm"
	"github.com/pvlima/modbot/internal/logger"
	"github.com/pvlima/modbot/internal/retrieval"
	"github.com/pvlima/modbot/internal/store"
	"github.com/pvlima/modbot/internal/tools"
	"github.com/pvlima/modbot/internal/ui"
)

var Version = "dev"

func main() {
	// Ensure log file is closed on exit
	defer logger.CloseLogFile()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := os.Args[1:]

	// Handle version flag before logging to avoid a log file for version checks
	if len(args) > 0 && (args[0] == "--version" || args[0] == "-v" || args[0] == "version") {
		fmt.Printf("modbot version %s\n", Version)
		return nil
	}

	logger.Debug("modbot session started, args=%v", args)

	if len(args) > 0 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		printHelp()
		return nil
	}

	// Parse --token flag before config load
	var token string
	for i := 0; i < len(args); i++ {
		if args[i] == "--token" && i+1 < len(args) {
			token = args[i+1]
			args = append(args[:i], args[i+2:]...)
			break
		}
		if strings.HasPrefix(args[i], "--token=") {
			token = strings.TrimPrefix(args[i], "--token=")
			args = append(args[:i], args[i+1:]...)
			break
		}
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		TokenOverride: token,
	})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()

	// Initialize components
	output := ui.NewOutputHandler()
	input := ui.NewInputHandler(output)
	spinner := ui.NewSpinner()
	baseClient := llm.NewClient(cfg)

	// Wrap with rate limiting if enabled
	var llmClient llm.CompletionClient = baseClient
	if cfg.RateLimit.EnableRateLimiting {
		rateLimited := llm.NewRateLimitedClient(baseClient, &cfg.RateLimit)
		rateLimited.SetWaitCallback(func(ctx context.Context, info llm.WaitInfo) error {
			spinner.Start(fmt.Sprintf("rate limited, waiting %s", info.Duration.Round(time.Second)))
			defer spinner.Stop()
			timer := time.NewTimer(info.Duration)
			defer timer.Stop()
			select {
			case <-timer.C:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		llmClient = rateLimited
	}

	st, err := store.NewPostgresStore(ctx, store.PostgresOptions{
		DatabaseURL: cfg.DatabaseURL,
		Channel:     cfg.Sync.Channel,
		Dimensions:  cfg.EmbeddingDimensions,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer st.Close()

	embedder := llm.NewOpenAIEmbedder(cfg)
	builder := retrieval.NewBuilder(embedder, st, cfg.Retrieval)

	registry := tools.NewRegistry()
	registry.Register(tools.NewBanUserTool(st))
	registry.Register(tools.NewLiftTheBanTool(st))
	registry.Register(tools.NewLiftAllBansTool(st))
	registry.Register(tools.NewProtectUserTool(st, llmClient, cfg.SystemUsername))
	registry.Register(tools.NewMentionsTool(builder))

	a := agent.New(agent.Config{
		LLM:      llmClient,
		Tools:    registry,
		Store:    st,
		Output:   output,
		Input:    input,
		Progress: spinner,
		Config:   cfg,
	})

	output.ModelInfo(llmClient.GetModel())

	// One-shot mode if a message was provided
	if len(args) > 0 {
		message := strings.Join(args, " ")
		logger.Debug("one-shot mode with message: %s", message)
		answer, err := a.Converse(ctx, message)
		if err != nil {
			return err
		}
		output.Assistant(answer)
		return nil
	}

	logger.Debug("entering interactive mode")
	return a.RunInteractive(ctx)
}

func printHelp() {
	fmt.Print(`modbot - AI chat moderation assistant

Usage:
  modbot [message]        Resolve a single message and exit
  modbot                  Start interactive mode
  modbot version          Show version
  modbot help             Show this help

Flags:
  --token <key>           API key (overrides ANTHROPIC_API_KEY env var)
  -v, --version           Show version
  -h, --help              Show help

Interactive Commands:
  /help                   Show help
  /bans                   List banned users
  /clear                  Clear conversation
  /exit                   Exit interactive mode

Environment:
  ANTHROPIC_API_KEY       Completion API key (can be overridden with --token)
  OPENAI_API_KEY          Embedding API key
  DATABASE_URL            Postgres connection string

Config Files (in priority order):
  ./modbot.yaml
  ./.modbot/config.yaml
  ~/.config/modbot/config.yaml
`)
}
