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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	router "github.com/dkeye/telemed/internal/adapters/http"
	"github.com/dkeye/telemed/internal/adapters/rtc"
	"github.com/dkeye/telemed/internal/app/orch"
	"github.com/dkeye/telemed/internal/auth"
	"github.com/dkeye/telemed/internal/config"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the signaling server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// setupLogger switches to JSON output in release mode and applies the
// configured level.
func setupLogger(cfg *config.Config) {
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func runServer() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogger(cfg)

	if err := rtc.Validate(rtc.ICEServers(cfg.WebRTC)); err != nil {
		return fmt.Errorf("webrtc config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("auth.jwt_secret is empty, bearer endpoints will reject every token")
	}

	o := orch.New(cfg.Relay.StrictSequencing)
	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))

	r := router.SetupRouter(ctx, cfg, o, verifier)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("telemed server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
