package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindfulme/backend/internal/app"
	"github.com/zhouzirui/mindfulme/backend/internal/config"
	"github.com/zhouzirui/mindfulme/backend/internal/handler"
	"github.com/zhouzirui/mindfulme/backend/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logging.BridgeStdlib(logger)
	if envErr != nil {
		logger.Debug().Err(envErr).Msg("no .env file, using system environment variables only")
	}

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise services")
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close storage")
		}
	}()

	// 启动时等待认证提供方给出首个状态
	boot, unsubscribe := a.Sessions.Bootstrap(ctx, a.Provider, cfg.Auth.BootstrapTimeout)
	defer unsubscribe()
	if boot.Authenticated {
		logger.Info().Str("user_id", boot.User.ID).Msg("restored signed-in user")
	} else if boot.TimedOut {
		logger.Warn().Msg("session bootstrap timed out")
	}

	router := handler.NewRouter(handler.Deps{
		Logger:    logging.Component(logger, "http"),
		Provider:  a.Provider,
		Sessions:  a.Sessions,
		Moods:     a.Moods,
		Chat:      a.Chat,
		Accounts:  a.Accounts,
		Mirror:    a.Mirror,
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
	})

	startServer(ctx, logger, cfg.Server, router)
}

func startServer(ctx context.Context, logger zerolog.Logger, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", addr).Msg("MindfulMe backend listening")
	if err := runServer(ctx, srv); err != nil {
		logger.Error().Err(err).Msg("server error")
		return
	}
	logger.Info().Msg("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
