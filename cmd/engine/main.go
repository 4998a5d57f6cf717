// File: cmd/engine/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/chat"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/config"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/metrics"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/server"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/store"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/transport"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/trigger"
	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

var (
	configPath string
	version    = "1.0.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "webhook-engine",
		Short:   "Outgoing webhook trigger engine for chat events",
		Version: version,
		RunE:    run,
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Application bundles every running component
type Application struct {
	config    *config.Config
	logger    *logrus.Logger
	store     store.Store
	directory *chat.Directory
	engine    trigger.Engine
	server    *server.HTTPServer
	metrics   *metrics.Manager
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := utils.InitLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger := utils.GetLogger()

	logger.WithFields(logrus.Fields{
		"version":     version,
		"environment": cfg.App.Environment,
	}).Info("Starting outgoing webhook engine")

	app, err := newApplication(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}

	waitForShutdown(logger)

	return app.Stop()
}

func newApplication(cfg *config.Config, logger *logrus.Logger) (*Application, error) {
	st, err := store.NewStore(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err := st.Connect(); err != nil {
		return nil, err
	}
	if err := st.Migrate(); err != nil {
		return nil, err
	}

	metricsManager := metrics.NewManager()
	directory := chat.NewDirectory()

	engine := trigger.NewManager(trigger.Deps{
		Users:        directory,
		Rooms:        directory,
		Messages:     directory,
		Messenger:    directory,
		Integrations: st,
		History:      store.NewHistoryRecorder(st),
		Settings:     config.NewEngineSettings(&cfg.Engine),
		Notifier:     directory,
		Fetcher:      transport.NewHTTPFetcher(cfg.Engine.HTTPTimeout),
		Metrics:      metricsManager,
	})

	httpServer := server.NewHTTPServer(&cfg.Server, engine, st, metricsManager)

	return &Application{
		config:    cfg,
		logger:    logger,
		store:     st,
		directory: directory,
		engine:    engine,
		server:    httpServer,
		metrics:   metricsManager,
	}, nil
}

// Start brings the engine and API up and loads the enabled integrations
// into the trigger index
func (a *Application) Start(ctx context.Context) error {
	if err := a.engine.Start(ctx); err != nil {
		return err
	}

	enabled := true
	records, err := a.store.GetIntegrations(ctx, &enabled)
	if err != nil {
		return err
	}
	for _, record := range records {
		a.engine.AddIntegration(record)
	}
	a.logger.WithField("count", len(records)).Info("Loaded enabled integrations")

	if err := a.server.Start(); err != nil {
		return err
	}

	go a.collectSystemMetrics(ctx)

	a.logger.Info("Application started")
	return nil
}

// Stop shuts every component down in reverse order
func (a *Application) Stop() error {
	a.logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := a.engine.Stop(); err != nil {
		a.logger.WithError(err).Error("Trigger engine shutdown failed")
	}
	if err := a.store.Close(); err != nil {
		a.logger.WithError(err).Error("Store shutdown failed")
	}

	a.logger.Info("Shutdown complete")
	return nil
}

func (a *Application) collectSystemMetrics(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.metrics.UpdateSystemMetrics()
		}
	}
}

func waitForShutdown(logger *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Shutdown signal received")
}
