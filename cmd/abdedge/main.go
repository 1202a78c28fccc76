// Package main is the entry point for the abdedge binary.
// It serves a small note-keeping API behind the CORS policy engine, with
// conditional, content-negotiated responses.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/brunoabdon/abdedge/cfgerrors"
	"github.com/brunoabdon/abdedge/conditional"
	"github.com/brunoabdon/abdedge/cors"
	"github.com/brunoabdon/abdedge/internal/config"
	"github.com/brunoabdon/abdedge/internal/logging"
	"github.com/brunoabdon/abdedge/internal/metrics"
)

const (
	defaultEnvFile  = ".env"
	metricsPath     = "/metrics"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "abdedge",
		Short: "HTTP edge layer with a CORS policy and conditional responses",
		Long: `abdedge serves a note-keeping API behind a CORS policy engine.

Allowed origins are read from the ` + cors.EnvAllowedOrigins + ` environment
variable (comma-separated patterns such as
https://*.example.com), which may be set in a .env file.

Example:
  ` + cors.EnvAllowedOrigins + `="https://app.example.com" abdedge --listen :8080`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runServer,
	}

	rootCmd.Flags().StringP("listen", "a", config.DefaultListen, "Address to listen on")
	rootCmd.Flags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.Flags().StringP("log-level", "l", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-format", config.DefaultLogFormat, "Log format (json, text)")
	rootCmd.Flags().String("env-file", defaultEnvFile, "Path to a .env file; ignored if absent")

	return rootCmd
}

// buildSettings loads the configuration file, if any, and applies the
// flags that were explicitly set on top of it.
func buildSettings(cmd *cobra.Command) (*config.File, error) {
	flags := cmd.Flags()
	path, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	settings := config.Default()
	if path != "" {
		if settings, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	overrides := []struct {
		flag string
		dst  *string
	}{
		{"listen", &settings.Listen},
		{"log-level", &settings.Log.Level},
		{"log-format", &settings.Log.Format},
	}
	for _, o := range overrides {
		if !flags.Changed(o.flag) {
			continue
		}
		if *o.dst, err = flags.GetString(o.flag); err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", o.flag, err)
		}
	}
	return settings, nil
}

// loadEnvFile loads path into the environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	settings, err := buildSettings(cmd)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(logging.Config{
		Level:  settings.Log.Level,
		Format: settings.Log.Format,
	})
	slog.SetDefault(logger)

	handler, err := newHandler(settings, logger, metrics.NewMetrics())
	if err != nil {
		for e := range cfgerrors.All(err) {
			logger.Error("invalid CORS configuration", "error", e)
		}
		return err
	}

	srv := &http.Server{
		Addr:              settings.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting abdedge", "listen", settings.Listen, "log_level", settings.Log.Level)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			return err
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", "error", err)
			return err
		}
	}

	logger.Info("Server stopped")
	return nil
}

// newHandler builds the handler chain: CORS, then OpenTelemetry
// instrumentation, then the routes. Allowed origins come from the
// environment.
func newHandler(settings *config.File, logger *slog.Logger, m *metrics.Metrics) (http.Handler, error) {
	corsCfg, err := cors.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	settings.CORS.ApplyTo(&corsCfg)
	mw, err := cors.NewMiddleware(corsCfg, cors.WithLogger(logger), cors.WithObserver(m))
	if err != nil {
		return nil, err
	}

	negotiator := conditional.NewNegotiator(
		conditional.WithLogger(logger),
		conditional.WithObserver(m),
	)

	mux := http.NewServeMux()
	newNotesResource(negotiator, logger).Register(mux)
	mux.Handle("GET "+metricsPath, m.Handler())

	return mw.Wrap(otelhttp.NewHandler(mux, "abdedge")), nil
}
