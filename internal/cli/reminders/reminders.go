package reminders

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/reminder"
)

const entryTimeFormat = "Mon Jan 2 15:04"

type RemindersCmd struct {
	Run    RemindersRunCmd    `cmd:"" help:"Keep running and deliver habit reminders until interrupted."`
	Status RemindersStatusCmd `cmd:"" help:"Show when each reminder fires next."`
}

// notifyContext is swapped in tests to stop the loop without a signal.
var notifyContext = signal.NotifyContext

// reloadInterval is how often the run loop re-reads the store.
var reloadInterval = 30 * time.Second

type RemindersRunCmd struct{}

func (c *RemindersRunCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	sigCtx, stop := notifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auth, err := a.Facility.RequestAuthorization(sigCtx)
	if err != nil {
		return err
	}
	if auth != reminder.Granted {
		ctx.Println("⚠ Reminders are disabled. Run 'habitual notify enable --reset' once the notifier is running.")
	}

	store, err := a.Open()
	if err != nil {
		return err
	}
	sched, err := a.StartReminders(reminder.WithFireHook(func(h models.Habit, delivered bool) {
		if !delivered {
			logger.Debug("Reminder not delivered", "habit", h.ID)
			return
		}
		ctx.Printf("🔔 Reminded: %s %s\n", h.Emoji, h.Name)
	}))
	if err != nil {
		return err
	}

	entries := sched.Entries()
	if len(entries) == 0 {
		ctx.Println("No reminders scheduled. Add one with 'habitual habit remind <habit> HH:MM'.")
	}
	for _, e := range entries {
		name := e.HabitID
		if h, ok := store.Get(e.HabitID); ok {
			name = h.Emoji + " " + h.Name
		}
		ctx.Printf("  %s  next at %s\n", name, e.At.In(a.Location()).Format(entryTimeFormat))
	}
	ctx.Println("Waiting for reminders. Press Ctrl+C to stop.")

	watchStore(sigCtx, store, reloadInterval)
	ctx.Println("Stopping reminders.")
	return nil
}

// watchStore reloads the store every interval until ctx is done, arming
// reminders that other commands added in the meantime.
func watchStore(ctx context.Context, store *habits.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Reload(); err != nil {
				logger.Warn("Failed to reload habits", "error", err)
			}
		}
	}
}

type RemindersStatusCmd struct{}

func (c *RemindersStatusCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	store, err := a.Open()
	if err != nil {
		return err
	}

	ctx.Printf("Notifications: %s\n", a.Facility.QueryAuthorization())

	now := store.Now()
	count := 0
	for _, h := range store.List() {
		if h.Reminder == nil {
			continue
		}
		count++
		next := reminder.NextFire(now, *h.Reminder)
		ctx.Printf("  %s %-24s %s  next at %s\n", h.Emoji, h.Name, h.Reminder, next.Format(entryTimeFormat))
	}
	if count == 0 {
		ctx.Println("No habits have reminders.")
	}
	return nil
}
