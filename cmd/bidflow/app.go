package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360studio/bidflow/bot"
	"github.com/c360studio/bidflow/config"
	"github.com/c360studio/bidflow/dashboard"
	"github.com/c360studio/bidflow/llm"
	"github.com/c360studio/bidflow/marketplace"
	"github.com/c360studio/bidflow/session"
	"github.com/c360studio/bidflow/store"
)

// runOnce executes a single bidding run in the foreground.
func runOnce(configPath, logLevel string, dryRun bool) error {
	logger := setupLogger(logLevel)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dryRun {
		cfg.Bot.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Marketplace.OAuthToken == "" {
		return fmt.Errorf("marketplace OAuth token is required (set BIDFLOW_OAUTH_TOKEN)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	registry := newRegistry()
	metrics := bot.NewMetrics(registry)
	b := buildBot(cfg, "cli", st, metrics, logger)

	logger.Info("Bidflow starting",
		"version", Version,
		"bid_limit", cfg.Bot.BidLimit,
		"dry_run", cfg.Bot.DryRun)

	if err := b.Run(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("Run interrupted")
			return nil
		}
		return fmt.Errorf("bidding run failed: %w", err)
	}
	return nil
}

// serve starts the dashboard API with session management and config hot
// reload.
func serve(configPath, logLevel, listen string) error {
	logger := setupLogger(logLevel)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if listen != "" {
		cfg.Dashboard.Listen = listen
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	registry := newRegistry()
	metrics := bot.NewMetrics(registry)

	// All bots in the process record into the same collectors.
	factory := func(effective *config.Config, sessionID string) (session.Runner, error) {
		return buildBot(effective, sessionID, st, metrics, logger), nil
	}
	manager := session.NewManager(st, cfg, factory, logger)

	// The watcher swaps the base config sessions start from; running
	// sessions keep the config they started with.
	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, func(next *config.Config) {
			manager.SetBase(next)
			logger.Info("Configuration reloaded", "path", configPath)
		}, logger)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer watcher.Close()
	}

	server := dashboard.NewServer(cfg.Dashboard.Listen, manager, st, registry, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	manager.StopAll(shutdownCtx)
	return server.Shutdown(shutdownCtx)
}

// buildBot wires one bot from its configuration: marketplace session,
// completion client and the pipeline around them.
func buildBot(cfg *config.Config, sessionID string, st store.Store, metrics *bot.Metrics, logger *slog.Logger) *bot.Bot {
	var sessionOpts []marketplace.SessionOption
	if cfg.Marketplace.BaseURL != "" {
		sessionOpts = append(sessionOpts, marketplace.WithBaseURL(cfg.Marketplace.BaseURL))
	}
	sessionOpts = append(sessionOpts, marketplace.WithLogger(logger))
	mkt := marketplace.NewSession(cfg.Marketplace.OAuthToken, sessionOpts...)

	clientOpts := []llm.ClientOption{
		llm.WithLogger(logger),
		llm.WithTemperature(cfg.LLM.Temperature),
	}
	if cfg.LLM.Timeout > 0 {
		clientOpts = append(clientOpts, llm.WithHTTPClient(&http.Client{Timeout: cfg.LLM.Timeout}))
	}
	client := llm.NewClient(llm.Endpoint{
		Provider: cfg.LLM.Provider,
		URL:      cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
	}, clientOpts...)

	return bot.New(bot.Deps{
		Source:    mkt,
		Directory: mkt,
		Bidder:    mkt,
		Generator: client,
	}, cfg,
		bot.WithLogger(logger),
		bot.WithMetrics(metrics),
		bot.WithStore(st, sessionID),
	)
}

// buildStore returns the NATS-backed store when a server is configured,
// falling back to in-memory storage otherwise.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	if cfg.NATS.URL == "" {
		logger.Info("Using in-memory storage (no NATS URL configured)")
		return store.NewMemoryStore(), func() {}, nil
	}

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create JetStream context: %w", err)
	}

	st, err := store.NewNATSStore(ctx, js)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create NATS store: %w", err)
	}

	logger.Info("Using NATS storage", "url", cfg.NATS.URL)
	return st, nc.Close, nil
}

// newRegistry creates the process metrics registry with the standard
// runtime collectors.
func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}
