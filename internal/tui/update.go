package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/streak"
	habitlist "github.com/julianstephens/habitual/internal/tui/components/habits"
)

// headerHeight is the rows taken by the title, stats, banner and help.
const headerHeight = 8

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.habitsModel.SetSize(msg.Width-4, max(msg.Height-headerHeight, 0))
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case ReminderFiredMsg:
		if msg.Delivered {
			m.status = "🔔 " + fmt.Sprintf(constants.ReminderTitleFormat, msg.Habit.Name)
		}
		return m, nil

	case authResultMsg:
		m.auth = msg.auth
		switch {
		case msg.err != nil:
			m.status = "Could not save notification permission: " + msg.err.Error()
		case msg.auth == reminder.Granted:
			m.status = "Reminders enabled"
		default:
			m.status = "Reminders are unavailable: the notifier is not running"
		}
		return m, nil

	case habitlist.AddHabitMsg:
		m.habitForm = &HabitFormModel{
			Emoji:    constants.DefaultEmoji,
			Color:    constants.DefaultColor,
			Reminder: constants.DefaultReminderTime,
		}
		m.form = NewHabitForm(m.habitForm)
		m.state = StateAddHabit
		return m, m.form.Init()

	case habitlist.ToggleHabitMsg:
		m.toggle(msg.ID)
		return m, nil

	case habitlist.DeleteHabitMsg:
		m.deleteID = msg.ID
		m.deleteName = msg.Name
		m.state = StateConfirmDelete
		return m, nil

	case habitlist.EditReminderMsg:
		h, ok := m.store.Get(msg.ID)
		if !ok {
			m.status = "That habit no longer exists"
			m.refresh()
			return m, nil
		}
		m.reminderForm = &ReminderFormModel{Time: constants.DefaultReminderTime}
		if h.Reminder != nil {
			m.reminderForm.Time = h.Reminder.String()
		}
		m.reminderHabitID = h.ID
		m.form = NewReminderForm(m.reminderForm, h.Name)
		m.state = StateEditReminder
		return m, m.form.Init()
	}

	switch m.state {
	case StateAddHabit:
		return m.updateAddHabit(msg)
	case StateEditReminder:
		return m.updateEditReminder(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "ctrl+c" || (!m.habitsModel.Filtering() && key.Matches(msg, m.keys.Quit)) {
			m.quitting = true
			return m, tea.Quit
		}
		if !m.habitsModel.Filtering() {
			switch {
			case key.Matches(msg, m.keys.Help):
				m.help.ShowAll = !m.help.ShowAll
				return m, nil
			case key.Matches(msg, m.keys.Notify):
				if m.auth == reminder.Undetermined {
					return m, m.requestAuthorization()
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.habitsModel, cmd = m.habitsModel.Update(msg)
	return m, cmd
}

func (m *Model) toggle(id string) {
	h, err := m.store.ToggleToday(id)
	m.refresh()
	if err != nil {
		m.status = describeError(err)
		return
	}
	view := streak.Summarize(h, m.today)
	if view.CompletedToday {
		m.status = fmt.Sprintf("✓ %s done (%s)", h.Name, streak.FormatStreak(view.Streak))
	} else {
		m.status = h.Name + " unmarked"
	}
}

func (m Model) requestAuthorization() tea.Cmd {
	f := m.facility
	return func() tea.Msg {
		auth, err := f.RequestAuthorization(context.Background())
		return authResultMsg{auth: auth, err: err}
	}
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd, bool) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateHabits
		return m, nil, false
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.state = StateHabits
		return m, cmd, true
	case huh.StateAborted:
		m.state = StateHabits
	}
	return m, cmd, false
}

func (m Model) updateAddHabit(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd, done := m.updateForm(msg)
	if !done {
		return m, cmd
	}

	fm := m.habitForm
	rt, err := parseReminder(fm.Reminder)
	if err != nil {
		m.status = describeError(err)
		return m, cmd
	}
	h, err := m.store.Create(fm.Name, fm.Emoji, fm.Color, rt)
	if err != nil {
		m.status = describeError(err)
		return m, cmd
	}
	m.refresh()
	m.status = "Added " + h.Emoji + " " + h.Name
	logger.Debug("Habit added from TUI", "id", h.ID)
	return m, cmd
}

func (m Model) updateEditReminder(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd, done := m.updateForm(msg)
	if !done {
		return m, cmd
	}

	rt, err := parseReminder(m.reminderForm.Time)
	if err != nil {
		m.status = describeError(err)
		return m, cmd
	}
	h, err := m.store.SetReminder(m.reminderHabitID, rt)
	m.refresh()
	if err != nil {
		m.status = describeError(err)
		return m, cmd
	}
	if h.Reminder == nil {
		m.status = "Reminder cleared for " + h.Name
	} else {
		m.status = fmt.Sprintf("Reminder for %s set to %s", h.Name, h.Reminder)
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		err := m.store.Delete(m.deleteID)
		m.refresh()
		if err != nil {
			m.status = describeError(err)
		} else {
			m.status = "Deleted " + m.deleteName
		}
		m.state = StateHabits
	case key.Matches(keyMsg, m.keys.Cancel):
		m.state = StateHabits
	case keyMsg.String() == "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func describeError(err error) string {
	if habits.IsNotFound(err) {
		return "That habit no longer exists"
	}
	return "Error: " + err.Error()
}
