package tui

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/streak"
	habitlist "github.com/julianstephens/habitual/internal/tui/components/habits"
)

type SessionState int

const (
	StateHabits SessionState = iota
	StateAddHabit
	StateEditReminder
	StateConfirmDelete
)

// refreshInterval is how often the view re-derives "today" so streaks
// roll over at midnight while the TUI is open.
const refreshInterval = time.Minute

type HabitFormModel struct {
	Name     string
	Emoji    string
	Color    string
	Reminder string
}

type ReminderFormModel struct {
	Time string
}

// ReminderFiredMsg is sent by the reminder scheduler's fire hook.
type ReminderFiredMsg struct {
	Habit     models.Habit
	Delivered bool
}

type tickMsg time.Time

type authResultMsg struct {
	auth reminder.Authorization
	err  error
}

type Model struct {
	store    *habits.Store
	facility reminder.Facility

	state       SessionState
	keys        KeyMap
	help        help.Model
	habitsModel habitlist.Model

	form         *huh.Form
	habitForm    *HabitFormModel
	reminderForm *ReminderFormModel

	reminderHabitID string
	deleteID        string
	deleteName      string

	auth     reminder.Authorization
	status   string
	today    civil.Date
	quitting bool
	width    int
	height   int
}

func NewModel(store *habits.Store, facility reminder.Facility) Model {
	m := Model{
		store:    store,
		facility: facility,
		state:    StateHabits,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		auth:     facility.QueryAuthorization(),
	}
	m.today = store.Today()
	m.habitsModel = habitlist.New(m.views(), 0, 0)
	return m
}

// views derives the display rows from the store for the current day.
func (m Model) views() []streak.HabitView {
	all := m.store.List()
	out := make([]streak.HabitView, len(all))
	for i, h := range all {
		out[i] = streak.Summarize(h, m.today)
	}
	return out
}

func (m *Model) refresh() {
	m.today = m.store.Today()
	m.habitsModel.SetHabits(m.views())
}

func (m Model) ShortHelp() []key.Binding {
	switch m.state {
	case StateConfirmDelete:
		return []key.Binding{m.keys.Confirm, m.keys.Cancel}
	case StateAddHabit, StateEditReminder:
		return nil
	}
	hk := m.habitsModel.Keys()
	keys := []key.Binding{hk.Toggle, hk.Add, hk.Delete, hk.Remind}
	if m.auth == reminder.Undetermined {
		keys = append(keys, m.keys.Notify)
	}
	return append(keys, m.keys.Quit, m.keys.Help)
}

func (m Model) FullHelp() [][]key.Binding {
	if m.state != StateHabits {
		return [][]key.Binding{m.ShortHelp()}
	}
	hk := m.habitsModel.Keys()
	global := []key.Binding{m.keys.Quit, m.keys.Help, m.keys.Notify}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}
	actions := []key.Binding{hk.Toggle, hk.Add, hk.Delete, hk.Remind}
	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}
