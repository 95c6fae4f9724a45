// Package app wires configuration, storage, the habit store and the
// reminder scheduler together for the CLI and the TUI.
package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/storage"
)

type App struct {
	Config    *config.Config
	Provider  storage.Provider
	Notifier  notifier.Notifier
	Facility  reminder.Facility
	Store     *habits.Store
	Scheduler *reminder.Scheduler

	loc *time.Location
	now func() time.Time
}

// Option overrides a collaborator, mostly for tests.
type Option func(*App)

func WithProvider(p storage.Provider) Option {
	return func(a *App) { a.Provider = p }
}

func WithNotifier(n notifier.Notifier) Option {
	return func(a *App) { a.Notifier = n }
}

func WithFacility(f reminder.Facility) Option {
	return func(a *App) { a.Facility = f }
}

func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New builds the collaborators described by cfg without touching the
// backend. out receives console notifications.
func New(cfg *config.Config, out io.Writer, opts ...Option) (*App, error) {
	a := &App{Config: cfg, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a.loc = loc

	if a.Provider == nil {
		p, err := storage.Open(cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to open store %s: %w", cfg.Store, err)
		}
		a.Provider = p
	}
	if a.Notifier == nil {
		if out == nil {
			out = os.Stdout
		}
		n, err := notifier.New(cfg.Notifications.Backend, out)
		if err != nil {
			return nil, err
		}
		a.Notifier = n
	}
	if a.Facility == nil {
		a.Facility = reminder.NewTimerFacility(cfg, a.Notifier)
	}
	return a, nil
}

// Location is the time zone that decides day boundaries.
func (a *App) Location() *time.Location {
	return a.loc
}

// Init prepares the backend (creates files, runs migrations).
func (a *App) Init() error {
	if err := a.Provider.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "path", a.Provider.GetConfigPath())
	return nil
}

// Open loads the habit collection. It is a no-op once loaded.
func (a *App) Open() (*habits.Store, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	store, err := habits.Open(a.Provider,
		habits.WithClock(a.now),
		habits.WithLocation(a.loc),
	)
	if err != nil {
		return nil, err
	}
	a.Store = store
	return store, nil
}

// StartReminders arms timers for every habit with a reminder and keeps them
// in sync with later changes. A firing reminder reloads the store first so
// a habit deleted or changed by another process is not announced.
func (a *App) StartReminders(opts ...reminder.Option) (*reminder.Scheduler, error) {
	if a.Scheduler != nil {
		return a.Scheduler, nil
	}
	store, err := a.Open()
	if err != nil {
		return nil, err
	}

	opts = append([]reminder.Option{reminder.WithClock(a.now), reminder.WithLocation(a.loc)}, opts...)
	sched := reminder.New(a.Facility, a.Notifier,
		func(id string) (models.Habit, bool) {
			if err := store.Reload(); err != nil {
				logger.Warn("Failed to reload habits before reminder", "habit", id, "error", err)
			}
			return store.Get(id)
		},
		opts...,
	)
	store.Watch(sched.Reconcile)
	a.Scheduler = sched
	logger.Debug("Reminders started", "pending", sched.Pending())
	return sched, nil
}

// Close stops reminders, retries any outstanding write and releases the backend.
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	var flushErr error
	if a.Store != nil {
		if flushErr = a.Store.Flush(); flushErr != nil {
			logger.Error("Unsaved habit changes", "error", flushErr)
		}
	}
	if err := a.Provider.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return flushErr
}
