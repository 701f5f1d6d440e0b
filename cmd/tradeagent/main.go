package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/TradeAgent/config"
	"github.com/Alias1177/TradeAgent/internal/analyzer/ollama"
	"github.com/Alias1177/TradeAgent/internal/analyzer/openai"
	"github.com/Alias1177/TradeAgent/internal/decision"
	"github.com/Alias1177/TradeAgent/internal/engine"
	"github.com/Alias1177/TradeAgent/internal/feed"
	"github.com/Alias1177/TradeAgent/internal/indicator"
	"github.com/Alias1177/TradeAgent/internal/ledger"
	"github.com/Alias1177/TradeAgent/internal/notify"
	"github.com/Alias1177/TradeAgent/internal/store"
	"github.com/Alias1177/TradeAgent/models"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

func main() {
	root := &cobra.Command{
		Use:   "tradeagent",
		Short: "AI-assisted paper-trading agent",
	}
	root.AddCommand(runCmd(), resetCmd(), statusCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the trading loop against the simulated price feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			st, closeStore, err := buildStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			l, err := ledger.New(cfg.InitialCash, st)
			if err != nil {
				return fmt.Errorf("initializing ledger: %w", err)
			}

			policy := decision.New(buildAnalyzer(cfg), time.Duration(cfg.RequestTimeout)*time.Second)

			eng := engine.New(engine.Config{
				MinHistory:     cfg.MinHistory,
				ConfidenceGate: cfg.ConfidenceGate,
				Periods: indicator.Periods{
					RSIShort:      cfg.RSIShortPeriod,
					RSILong:       cfg.RSILongPeriod,
					EMA:           cfg.EMAPeriod,
					MACDFast:      12,
					MACDSlow:      26,
					HistoryWindow: 10,
				},
			}, l, policy)

			if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
				notifier, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
				if err != nil {
					return err
				}
				eng.Subscribe(notifier.HandleSnapshot)
				log.Info().Msg("Telegram notifications enabled")
			}

			simFeed := feed.NewSim(cfg.Symbols, cfg.FeedSeed, cfg.HistorySize)
			simFeed.Warmup(cfg.MinHistory)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = eng.Run(ctx, simFeed, time.Duration(cfg.TickInterval)*time.Second)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the portfolio to its initial cash balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			st, closeStore, err := buildStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			l, err := ledger.New(cfg.InitialCash, st)
			if err != nil {
				return fmt.Errorf("initializing ledger: %w", err)
			}

			l.Reset()
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current portfolio snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			st, closeStore, err := buildStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			l, err := ledger.New(cfg.InitialCash, st)
			if err != nil {
				return fmt.Errorf("initializing ledger: %w", err)
			}

			portfolio := l.Portfolio()
			out, err := json.MarshalIndent(portfolio, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	return cfg, nil
}

func buildStore(cfg *config.Config) (models.SnapshotStore, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("POSTGRES_DSN is required for the postgres store")
		}
		pg, err := store.NewPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return pg, func() { pg.Close() }, nil

	case "memory":
		return store.NewMemory(), func() {}, nil

	case "sqlite":
		sq, err := store.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return sq, func() { sq.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func buildAnalyzer(cfg *config.Config) models.Analyzer {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second

	switch cfg.AnalyzerProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Warn().Msg("OPENAI_API_KEY not set, decisions use the deterministic fallback")
			return nil
		}
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.AnalyzerModel, cfg.AnalyzerBaseURL)

	case "openrouter":
		if cfg.OpenAIAPIKey == "" {
			log.Warn().Msg("OPENAI_API_KEY not set, decisions use the deterministic fallback")
			return nil
		}
		baseURL := cfg.AnalyzerBaseURL
		if baseURL == "" {
			baseURL = openRouterBaseURL
		}
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.AnalyzerModel, baseURL)

	case "ollama":
		return ollama.NewClient(cfg.AnalyzerBaseURL, cfg.AnalyzerModel, timeout)

	default:
		log.Info().Msg("No analyzer configured, decisions use the deterministic fallback")
		return nil
	}
}
