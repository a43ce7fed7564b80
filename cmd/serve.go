package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/opsdesk/opsdesk/internal/api"
	"github.com/opsdesk/opsdesk/internal/assist"
	"github.com/opsdesk/opsdesk/internal/config"
	"github.com/opsdesk/opsdesk/internal/log"
	"github.com/opsdesk/opsdesk/internal/ops"
	"github.com/opsdesk/opsdesk/internal/oracle"
	"github.com/opsdesk/opsdesk/internal/session"
	"github.com/opsdesk/opsdesk/internal/store"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // model calls can be slow
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})
	logger.Info("starting opsdesk", "version", Version, "config", cfg)

	// Store construction returns immediately; the connection probe runs in
	// the background and the first query waits on it.
	st, err := store.New(store.Config{DSN: cfg.PostgresConnectionString()}, logger)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Warn("closing store", "error", closeErr)
		}
	}()

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))

	llm, err := oracle.New(oracle.Config{
		Genkit:      g,
		ModelName:   cfg.QualifiedModel(),
		Schema:      st,
		Logger:      logger,
		RateLimiter: rate.NewLimiter(rate.Limit(cfg.ModelRequestsPerSecond), cfg.ModelBurst),
	})
	if err != nil {
		return fmt.Errorf("creating oracle: %w", err)
	}

	assistant, err := assist.New(assist.Config{
		Oracle:   llm,
		Store:    st,
		Sessions: session.NewMemoryStore(),
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("creating assistant: %w", err)
	}

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:    logger,
		Assistant: assistant,
		Repo:      ops.NewRepo(st.DB(), logger),
		Store:     st,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", cfg.ServerAddr,
		"api", "/api/*",
		"health", "/health, /ready",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
