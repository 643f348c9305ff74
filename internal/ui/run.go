package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/DaanHessen/pointboard/internal/engine"
	"github.com/DaanHessen/pointboard/internal/store"
	"github.com/DaanHessen/pointboard/internal/text"
	"github.com/DaanHessen/pointboard/internal/util"
)

// Options carries everything the board needs to run.
type Options struct {
	Config    util.Config
	Session   *engine.Session
	Repo      *store.StateRepo
	Watcher   store.Watcher // optional
	Book      text.Book
	Announcer text.Announcer // defaults to Book
	Log       *zap.Logger
}

// Run boots the TUI program and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var changes <-chan struct{}
	if opts.Watcher != nil {
		ch, err := opts.Watcher.Watch(ctx, opts.Repo.Key())
		if err != nil {
			if opts.Log != nil {
				opts.Log.Warn("external change watch unavailable", zap.Error(err))
			}
		} else {
			changes = ch
		}
	}

	m := initialModel(ctx, opts, changes)
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
