package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/DaanHessen/pointboard/internal/engine"
	"github.com/DaanHessen/pointboard/internal/store"
	"github.com/DaanHessen/pointboard/internal/text"
	"github.com/DaanHessen/pointboard/internal/util"
)

// board is the wired storage, session and phrasing shared by every command.
type board struct {
	repo      *store.StateRepo
	watcher   store.Watcher
	sess      *engine.Session
	book      text.Book
	announcer text.Announcer
	closers   []func() error
}

func openBoard(ctx context.Context, cfg util.Config, log *zap.Logger) (*board, error) {
	b := &board{book: text.For(cfg.Language)}

	var kv store.KV
	switch cfg.Store {
	case "memory":
		kv = store.NewMemoryKV()
	case "postgres":
		// Ensure migrations are present and applied before opening the board
		mig, err := store.NewMigrator(cfg.DSN)
		if err != nil {
			return nil, err
		}
		migCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := mig.Up(migCtx); err != nil && err != store.ErrNoChange {
			return nil, errors.Wrap(err, "migrations failed")
		}
		db, err := store.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		kv = db
	default:
		fkv, err := store.NewFileKV(cfg.DataDir, log)
		if err != nil {
			return nil, err
		}
		kv = fkv
		b.watcher = fkv
	}

	b.repo = store.NewStateRepo(kv, cfg.StorageKey,
		store.WithDefaults(b.book.Localize(engine.DefaultCounters())),
		store.WithLogger(log),
	)
	b.sess = engine.NewSession(b.repo.Load(ctx),
		engine.WithGoal(cfg.Goal),
		engine.WithBurstWindow(cfg.BurstWindow),
		engine.WithBurstThreshold(cfg.BurstThreshold),
	)

	b.announcer = b.book
	if cfg.Messages.Overtake != "" || cfg.Messages.RapidGain != "" {
		tmpl, err := text.NewTemplateAnnouncer(cfg.Messages.Overtake, cfg.Messages.RapidGain)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.announcer = text.WithFallback(tmpl, b.book)
	}
	return b, nil
}

// apply changes one counter, saves, and returns the announcement if any.
func (b *board) apply(ctx context.Context, id string, delta int) (string, error) {
	ev, err := b.sess.Increment(id, delta)
	if err != nil {
		return "", err
	}
	if err := b.repo.Save(ctx, b.sess.StatePtr()); err != nil {
		return "", err
	}
	return text.Announce(b.announcer, ev), nil
}

func (b *board) standings() string {
	return b.book.Leaderboard(b.sess.Summary(len(b.sess.Counters())))
}

func (b *board) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
