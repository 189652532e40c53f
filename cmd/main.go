/*
Package main is the entry point for the voice channel service.

It loads configuration, initializes logging and metrics, wires the Matrix
identity verifier, the LiveKit grant minter and the presence registry into the
HTTP router, and shuts the server down gracefully on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"voicesvc/internal/app/presence"
	"voicesvc/internal/configs"
	"voicesvc/internal/handler"
	"voicesvc/internal/pkg/auth/livekit"
	"voicesvc/internal/pkg/auth/matrix"
	"voicesvc/internal/pkg/logx"
	"voicesvc/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func main() {
	v := configs.NewViper()

	rootCmd := &cobra.Command{
		Use:   "voicesvc",
		Short: "Voice channel service for Matrix clients",
		Long: `voicesvc issues LiveKit access grants to callers verified by a Matrix
homeserver and tracks who is present in each voice channel from LiveKit webhooks.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configs.LoadConfig(v)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}

	rootCmd.Flags().Int("port", 0, "HTTP listening port (env: PORT)")
	rootCmd.Flags().String("env", "", "Runtime environment, e.g. development or production (env: ENVIRONMENT)")
	_ = v.BindPFlag("port", rootCmd.Flags().Lookup("port"))
	_ = v.BindPFlag("environment", rootCmd.Flags().Lookup("env"))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func run(parent context.Context, cfg *configs.AppConfig) error {
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("livekit_url", cfg.LiveKitURL).
		Str("matrix_homeserver_url", cfg.MatrixHomeserverURL).
		Dur("grant_ttl", cfg.GrantTTL).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.NewProvider(cfg.MetricsEnabled)
	if err != nil {
		return err
	}

	hub := presence.NewHub()
	registry := presence.NewRegistry(presence.WithObserver(hub))

	metrics, err := telemetry.NewMetrics(provider.MeterProvider, registry)
	if err != nil {
		return fmt.Errorf("failed to create metric instruments: %w", err)
	}

	minter, err := livekit.NewMinter(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, cfg.GrantTTL)
	if err != nil {
		return err
	}

	router := handler.Router(&handler.AppDeps{
		Config:         cfg,
		Registry:       registry,
		Hub:            hub,
		Verifier:       matrix.NewClient(cfg.MatrixHomeserverURL, cfg.MatrixTimeout),
		Minter:         minter,
		Metrics:        metrics,
		MetricsHandler: provider.Handler,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Voice service starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	hub.Shutdown()

	if err := provider.Shutdown(shutdownCtx); err != nil {
		logx.Warn("Meter provider shutdown failed", "error", err.Error())
	}

	logx.Info("Server gracefully stopped.")
	return nil
}
