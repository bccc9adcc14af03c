package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spinlog/spinlog/internal/auth"
	"github.com/spinlog/spinlog/internal/config"
	"github.com/spinlog/spinlog/internal/store"
	"github.com/spinlog/spinlog/internal/tracker"
	"github.com/spinlog/spinlog/internal/web"
	"github.com/spinlog/spinlog/pkg/spotify"
)

var (
	serveLogFile  string
	serveLogLevel string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracker and web dashboard",
	Long: `Run the session tracker and the web dashboard.

The server will:
- Poll Spotify's currently-playing endpoint every few seconds
- Open a session when a track starts and close it on track change,
  pause, or stop
- Refresh the OAuth access token before it expires
- Serve the authorization flow and reporting views over HTTP

Visit the root URL to authorize the application; the poller starts
recording as soon as the callback completes.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Log file path (default: stderr)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Missing static configuration is the only fatal startup error.
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := setupLogger(serveLogFile, serveLogLevel)

	logger.Info().
		Str("version", version).
		Str("listen_addr", cfg.ListenAddr).
		Msg("Starting spinlog")

	client, err := spotify.NewClient(spotify.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
	})
	if err != nil {
		return fmt.Errorf("failed to create spotify client: %w", err)
	}

	sessions, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() { _ = sessions.Close() }()

	logger.Info().Str("db_path", cfg.DBPath).Msg("Session store ready")

	credStore := auth.NewStore()
	manager := auth.NewManager(credStore, client,
		time.Duration(cfg.ExpiryMargin)*time.Second, logger)
	tr := tracker.New(sessions,
		time.Duration(cfg.FallbackDuration)*time.Second, logger)
	fetcher := tracker.NewFetcher(client, logger)
	poller := tracker.NewPoller(manager, fetcher, tr,
		time.Duration(cfg.PollInterval)*time.Second, logger)

	templates, err := web.NewTemplates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	handlers := web.NewHandlers(manager, tr, sessions, client, templates, logger)
	server := web.NewServer(cfg.ListenAddr, handlers, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First signal shuts down gracefully, second forces exit.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("Shutdown signal received, initiating graceful shutdown")
		cancel()

		<-sigChan
		logger.Warn().Msg("Second shutdown signal received, forcing exit")
		os.Exit(1)
	}()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Poller error")
		}
	}()

	serverErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		cancel()
		wg.Wait()
		return fmt.Errorf("web server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	wg.Wait()
	logger.Info().Msg("Stopped")
	return nil
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	// Parse log level
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Set up output
	var output *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			output = os.Stderr
		} else {
			output = f
		}
	} else {
		output = os.Stderr
	}

	// Create logger
	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if output == os.Stderr {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}
