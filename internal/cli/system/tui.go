package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	store, err := a.Open()
	if err != nil {
		return err
	}
	autoBackup(ctx)

	p := tea.NewProgram(tui.NewModel(store, a.Facility), tea.WithAltScreen())

	// Reminders fire on timer goroutines; Send is safe from any of them.
	if _, err := a.StartReminders(reminder.WithFireHook(func(h models.Habit, delivered bool) {
		p.Send(tui.ReminderFiredMsg{Habit: h, Delivered: delivered})
	})); err != nil {
		return err
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited: %w", err)
	}
	return nil
}
