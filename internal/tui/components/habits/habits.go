package habits

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/streak"
)

type AddHabitMsg struct{}

type ToggleHabitMsg struct {
	ID string
}

type DeleteHabitMsg struct {
	ID   string
	Name string
}

type EditReminderMsg struct {
	ID string
}

type Item struct {
	View streak.HabitView
}

func (i Item) Title() string { return i.View.Habit.Name }

func (i Item) Description() string {
	desc := streak.FormatStreak(i.View.Streak)
	if r := i.View.Habit.Reminder; r != nil {
		desc += " | " + r.String()
	}
	return desc
}

func (i Item) FilterValue() string { return i.View.Habit.Name }

type KeyMap struct {
	Add    key.Binding
	Toggle key.Binding
	Delete key.Binding
	Remind key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "m"),
			key.WithHelp("space/m", "toggle today"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Remind: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reminder"),
		),
	}
}

var (
	nameStyle     = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	streakStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

// delegate renders a habit as a header line and a 7-day strip.
type delegate struct{}

func (d delegate) Height() int                             { return 2 }
func (d delegate) Spacing() int                            { return 1 }
func (d delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(Item)
	if !ok {
		return
	}
	fmt.Fprint(w, RenderItem(i.View, index == m.Index()))
}

// RenderItem draws one habit row.
func RenderItem(v streak.HabitView, selected bool) string {
	h := v.Habit
	accent := lipgloss.NewStyle().Foreground(lipgloss.Color(h.Color))

	cursor := "  "
	name := nameStyle.Render(h.Name)
	if selected {
		cursor = selectedStyle.Render("> ")
		name = selectedStyle.Inherit(nameStyle).Render(h.Name)
	}

	check := mutedStyle.Render("○")
	if v.CompletedToday {
		check = doneStyle.Render("✓")
	}

	header := cursor + accent.Render("▌") + " " + check + " " + h.Emoji + " " + name
	header += "  " + streakStyle.Render("🔥 "+streak.FormatStreak(v.Streak))
	if h.Reminder != nil {
		header += "  " + mutedStyle.Render("⏰ "+h.Reminder.String())
	}

	cells := make([]string, 0, len(v.Week))
	for _, day := range v.Week {
		dot := mutedStyle.Render("·")
		if day.Completed {
			dot = accent.Render("●")
		}
		cells = append(cells, mutedStyle.Render(day.Label)+" "+dot)
	}
	week := "     " + strings.Join(cells, "  ")

	return header + "\n" + week
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(views []streak.HabitView, width, height int) Model {
	l := list.New(toItems(views), delegate{}, width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.KeyMap.Quit.SetEnabled(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Add, keys.Delete, keys.Remind}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Add, keys.Delete, keys.Remind}
	}

	return Model{list: l, keys: keys}
}

func toItems(views []streak.HabitView) []list.Item {
	items := make([]list.Item, len(views))
	for i, v := range views {
		items[i] = Item{View: v}
	}
	return items
}

// SetHabits replaces the rows, keeping the cursor where it was when possible.
func (m *Model) SetHabits(views []streak.HabitView) {
	idx := m.list.Index()
	m.list.SetItems(toItems(views))
	if idx >= len(views) {
		idx = len(views) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
}

// Selected returns the habit under the cursor.
func (m Model) Selected() (streak.HabitView, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.View, ok
}

// Filtering reports whether the user is typing a filter.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Keys() KeyMap {
	return m.keys
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddHabitMsg{} }
		case key.Matches(msg, m.keys.Toggle):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return ToggleHabitMsg{ID: i.View.Habit.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return DeleteHabitMsg{ID: i.View.Habit.ID, Name: i.View.Habit.Name} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Remind):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return EditReminderMsg{ID: i.View.Habit.ID} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && !m.Filtering() {
		return "\n  " + nameStyle.Render("No habits yet") +
			"\n  " + mutedStyle.Render("Create your first habit to get started. Press 'a' to add one.")
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
