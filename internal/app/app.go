// Package app assembles the runtime pieces shared by the server and the CLI:
// persistence backend, mentor provider and optional event publisher.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sidlawliet/whiteroom-mentor/internal/ai"
	"github.com/sidlawliet/whiteroom-mentor/internal/chat"
	"github.com/sidlawliet/whiteroom-mentor/internal/config"
	"github.com/sidlawliet/whiteroom-mentor/internal/db"
	"github.com/sidlawliet/whiteroom-mentor/internal/store/gormstore"
	"github.com/sidlawliet/whiteroom-mentor/internal/store/memstore"
	"github.com/sidlawliet/whiteroom-mentor/internal/store/rabbitmq"
	"github.com/sidlawliet/whiteroom-mentor/internal/store/redisstore"
	"gorm.io/gorm"
)

type App struct {
	Cfg      config.Config
	Store    chat.Persistence
	Mentor   ai.Provider
	Notifier chat.Notifier

	// DB is set when the gorm backend is in use.
	DB *gorm.DB

	closers []func() error
}

// Build opens everything cfg asks for. On error, whatever was already opened
// is closed again.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Cfg: cfg}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	if err := a.openStore(); err != nil {
		return err
	}

	persona := ai.DefaultPersona()
	if a.Cfg.PersonaFile != "" {
		p, err := ai.LoadPersona(a.Cfg.PersonaFile)
		if err != nil {
			return err
		}
		persona = p
	}
	mentor, err := ai.NewDefaultRegistry(a.Cfg, persona).Get(ctx, a.Cfg.AIProvider, "")
	if err != nil {
		return fmt.Errorf("ai provider: %w", err)
	}
	a.Mentor = mentor

	if a.Cfg.EventsEnabled {
		pub, err := rabbitmq.NewPublisher(a.Cfg.RabbitURL, a.Cfg.RabbitQueue)
		if err != nil {
			return fmt.Errorf("rabbit publisher: %w", err)
		}
		a.Notifier = pub
		a.closers = append(a.closers, pub.Close)
	}
	return nil
}

func (a *App) openStore() error {
	st, gdb, closeFn, err := OpenStore(a.Cfg)
	if err != nil {
		return err
	}
	a.Store = st
	a.DB = gdb
	a.closers = append(a.closers, closeFn)
	return nil
}

// OpenStore opens the persistence backend named by cfg.StorageBackend. The
// returned *gorm.DB is nil unless the gorm backend was chosen.
func OpenStore(cfg config.Config) (chat.Persistence, *gorm.DB, func() error, error) {
	switch cfg.StorageBackend {
	case "memory":
		return memstore.New(), nil, func() error { return nil }, nil
	case "gorm", "":
		gdb, err := db.Open(cfg.DBDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, nil, nil, err
		}
		st := gormstore.New(gdb)
		if err := st.Migrate(); err != nil {
			_ = sqlDB.Close()
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return st, gdb, sqlDB.Close, nil
	case "redis":
		rdb, err := redisstore.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("redis: %w", err)
		}
		return redisstore.New(rdb, cfg.RedisTTL), nil, rdb.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("unsupported STORAGE_BACKEND=%q", cfg.StorageBackend)
}

// NewController returns an inactive controller bound to the app's backends.
func (a *App) NewController(log *slog.Logger) *chat.Controller {
	opts := []chat.Option{
		chat.WithNamespace(a.Cfg.Namespace),
		chat.WithRetention(a.Cfg.SessionRetention),
	}
	if a.Notifier != nil {
		opts = append(opts, chat.WithNotifier(a.Notifier))
	}
	if log != nil {
		opts = append(opts, chat.WithLogger(log))
	}
	return chat.NewController(a.Store, a.Mentor, opts...)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}
