package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"newsreel/internal/app"
	"newsreel/internal/server"
	"newsreel/pkg/config"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  `Serve POST /api/generate, GET /api/videos and GET /health.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	built, err := app.BuildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := built.Close(); err != nil {
			slog.Warn("Failed to close resources", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(serverOptions(cfg, built)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Generation waits on the avatar provider for minutes.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", cfg.Server.Addr,
			"llm", cfg.LLM.Provider, "speech", cfg.Speech.Provider,
			"storage", cfg.Storage.Backend, "metadata", cfg.Metadata.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// serverOptions mounts the local backend directory so the URLs it hands
// out resolve against this server.
func serverOptions(cfg *config.Config, built *app.BuildResult) server.Options {
	return server.Options{
		Generator:      app.NewPipeline(built.Service),
		Records:        built.Service.Records(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		LocalDir:       built.LocalDir,
	}
}
