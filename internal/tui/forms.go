package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

// NewHabitForm creates the add-habit form.
func NewHabitForm(fm *HabitFormModel) *huh.Form {
	emojis := make([]huh.Option[string], len(constants.Emojis))
	for i, e := range constants.Emojis {
		emojis[i] = huh.NewOption(e, e)
	}
	colors := make([]huh.Option[string], len(constants.Colors))
	for i, c := range constants.Colors {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render("███")
		colors[i] = huh.NewOption(swatch+" "+c, c)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Placeholder("e.g. Read for 20 minutes").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("habit name cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Emoji").
				Options(emojis...).
				Value(&fm.Emoji),
			huh.NewSelect[string]().
				Title("Color").
				Options(colors...).
				Value(&fm.Color),
			huh.NewInput().
				Title("Daily reminder (HH:MM)").
				Description("Leave blank for no reminder").
				Value(&fm.Reminder).
				Validate(validateReminder),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewReminderForm edits an existing habit's reminder.
func NewReminderForm(fm *ReminderFormModel, habitName string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Reminder for " + habitName + " (HH:MM)").
				Description("Leave blank to turn the reminder off").
				Value(&fm.Time).
				Validate(validateReminder),
		),
	).WithTheme(huh.ThemeDracula())
}

func validateReminder(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := models.ParseReminderTime(s)
	return err
}

// parseReminder converts validated form input; blank means none.
func parseReminder(s string) (*models.ReminderTime, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	rt, err := models.ParseReminderTime(s)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}
