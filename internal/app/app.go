// Package app assembles the services shared by the API server and the
// command-line tool.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindfulme/backend/internal/analysis/responder"
	"github.com/zhouzirui/mindfulme/backend/internal/config"
	"github.com/zhouzirui/mindfulme/backend/internal/logging"
	"github.com/zhouzirui/mindfulme/backend/internal/service/account"
	"github.com/zhouzirui/mindfulme/backend/internal/service/ai"
	"github.com/zhouzirui/mindfulme/backend/internal/service/auth"
	"github.com/zhouzirui/mindfulme/backend/internal/service/chat"
	"github.com/zhouzirui/mindfulme/backend/internal/service/mirror"
	"github.com/zhouzirui/mindfulme/backend/internal/service/mood"
	"github.com/zhouzirui/mindfulme/backend/internal/service/records"
	"github.com/zhouzirui/mindfulme/backend/internal/service/session"
	"github.com/zhouzirui/mindfulme/backend/internal/storage/kv"
)

// App holds the wired services.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    kv.Store
	Records  *records.Service
	Sessions *session.Service
	Provider *auth.LocalProvider
	Mirror   *mirror.Client
	Moods    *mood.Service
	Chat     *chat.Service
	Accounts *account.Service
}

// Build opens storage and wires every service. Optional collaborators (the
// mirror and the language model) degrade to local behaviour on failure.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	store, err := kv.Open(ctx, kv.Options{
		Backend:       cfg.Storage.Backend,
		SQLitePath:    cfg.Storage.Path,
		SQLiteWAL:     cfg.Storage.WAL,
		SQLiteSync:    cfg.Storage.Sync,
		RedisAddr:     cfg.Storage.RedisAddr,
		RedisPassword: cfg.Storage.RedisPassword,
		RedisDB:       cfg.Storage.RedisDB,
		RedisPrefix:   cfg.Storage.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}

	clock := func() time.Time { return time.Now().In(cfg.Location) }

	recs := records.NewService(store, logging.Component(logger, "records"), records.WithClock(clock))
	sessions := session.NewService(recs, logging.Component(logger, "session"))
	provider := auth.NewLocalProvider(ctx, recs, logging.Component(logger, "auth"))

	mirrorClient := mirror.Connect(ctx, mirror.Config{
		DSN:     cfg.Mirror.DSN,
		Timeout: cfg.Mirror.Timeout,
	}, logging.Component(logger, "mirror"))

	// 未连接时不向心情服务传入镜像，避免每次写入都尝试远端
	var moodMirror mood.Mirror
	if mirrorClient.Connected() {
		moodMirror = mirrorClient
	}
	moods := mood.NewService(recs, moodMirror, logging.Component(logger, "mood"), mood.WithClock(clock))

	var completer chat.Completer
	if cfg.AI.Enabled() {
		aiSvc, err := ai.NewService(ctx, cfg.AI, logging.Component(logger, "ai"))
		if err != nil {
			logger.Warn().Err(err).Msg("language model unavailable, using canned replies")
		} else {
			completer = aiSvc
			logger.Info().Str("model", cfg.AI.Model).Msg("language model enabled")
		}
	} else {
		logger.Info().Msg("Ark 凭证未配置，使用内置回复")
	}
	chatSvc := chat.NewService(recs, responder.NewSelector(nil), completer, logging.Component(logger, "chat"))

	var cleaner account.MirrorCleaner
	if mirrorClient.Connected() {
		cleaner = mirrorClient
	}
	accounts := account.NewService(recs, sessions, cleaner, provider, logging.Component(logger, "account"))

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Records:  recs,
		Sessions: sessions,
		Provider: provider,
		Mirror:   mirrorClient,
		Moods:    moods,
		Chat:     chatSvc,
		Accounts: accounts,
	}, nil
}

// Close releases storage and the mirror connection.
func (a *App) Close() error {
	return errors.Join(a.Mirror.Close(), a.Store.Close())
}
