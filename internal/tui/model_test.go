package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/storage/memory"
	habitlist "github.com/julianstephens/habitual/internal/tui/components/habits"
)

var testNow = time.Date(2026, time.May, 13, 10, 0, 0, 0, time.UTC)

type fakeHandle struct{}

func (fakeHandle) Cancel() bool { return true }

type fakeFacility struct {
	auth  reminder.Authorization
	grant reminder.Authorization
}

func (f *fakeFacility) After(time.Duration, func()) reminder.Handle { return fakeHandle{} }

func (f *fakeFacility) QueryAuthorization() reminder.Authorization { return f.auth }

func (f *fakeFacility) RequestAuthorization(context.Context) (reminder.Authorization, error) {
	if f.auth == reminder.Undetermined {
		f.auth = f.grant
	}
	return f.auth, nil
}

type nopMsg struct{}

func day(offset int) civil.Date {
	return civil.DateOf(testNow).AddDays(offset)
}

func newTestModel(t *testing.T, seed ...models.Habit) (Model, *habits.Store, *fakeFacility) {
	t.Helper()

	store, err := habits.Open(memory.NewStore(seed...),
		habits.WithClock(func() time.Time { return testNow }),
		habits.WithLocation(time.UTC),
	)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	f := &fakeFacility{grant: reminder.Granted}
	m := NewModel(store, f)
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, store, f
}

func readHabit() models.Habit {
	return models.Habit{
		ID:             "id-read",
		Name:           "Read",
		Emoji:          "📚",
		Color:          "#8b5cf6",
		CreatedAt:      testNow.AddDate(0, 0, -10),
		CompletedDates: []civil.Date{day(-2), day(-1)},
		Reminder:       &models.ReminderTime{Hour: 9},
	}
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out
}

// press sends a key and feeds back the message its command produces.
func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	next, cmd := m.Update(runeKey(k))
	m = next.(Model)
	if cmd == nil {
		return m
	}
	msg := cmd()
	if msg == nil {
		return m
	}
	return send(t, m, msg)
}

func runeKey(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestViewEmptyState(t *testing.T) {
	m, _, _ := newTestModel(t)

	view := m.View()
	for _, want := range []string{"habitual", "No habits yet", "Enable reminders", "0 active"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestViewListsHabits(t *testing.T) {
	m, _, _ := newTestModel(t, readHabit())

	view := m.View()
	for _, want := range []string{"Read", "🔥 2 days", "⏰ 09:00", "1 active · 0/1 done today"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestToggleFromKeyboard(t *testing.T) {
	m, store, _ := newTestModel(t, readHabit())

	m = press(t, m, "m")

	h, _ := store.Get("id-read")
	if len(h.CompletedDates) != 3 || h.CompletedDates[2] != day(0) {
		t.Fatalf("CompletedDates = %v, want today appended", h.CompletedDates)
	}
	if !strings.Contains(m.status, "3 days") {
		t.Errorf("status = %q", m.status)
	}
	if !strings.Contains(m.View(), "1/1 done today") {
		t.Errorf("stats not refreshed:\n%s", m.View())
	}

	m = press(t, m, "m")
	h, _ = store.Get("id-read")
	if len(h.CompletedDates) != 2 {
		t.Errorf("CompletedDates = %v, want today removed", h.CompletedDates)
	}
	if m.status != "Read unmarked" {
		t.Errorf("status = %q", m.status)
	}
}

func TestToggleMissingHabit(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = send(t, m, habitlist.ToggleHabitMsg{ID: "gone"})
	if m.status != "That habit no longer exists" {
		t.Errorf("status = %q", m.status)
	}
}

func TestDeleteConfirm(t *testing.T) {
	tests := []struct {
		name     string
		answer   tea.KeyMsg
		wantLeft int
	}{
		{"confirm", runeKey("y"), 0},
		{"decline", runeKey("n"), 1},
		{"escape", tea.KeyMsg{Type: tea.KeyEsc}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store, _ := newTestModel(t, readHabit())

			m = press(t, m, "d")
			if m.state != StateConfirmDelete {
				t.Fatalf("state = %v, want confirm", m.state)
			}
			if !strings.Contains(m.View(), `Delete "Read"?`) {
				t.Errorf("confirm view:\n%s", m.View())
			}

			m = send(t, m, tt.answer)
			if m.state != StateHabits {
				t.Errorf("state = %v, want habits", m.state)
			}
			if got := len(store.List()); got != tt.wantLeft {
				t.Errorf("habits left = %d, want %d", got, tt.wantLeft)
			}
		})
	}
}

func TestEnableReminders(t *testing.T) {
	m, _, f := newTestModel(t)

	if !strings.Contains(m.View(), "Enable reminders") {
		t.Fatal("banner should show while undetermined")
	}

	m = press(t, m, "n")
	if f.auth != reminder.Granted {
		t.Errorf("facility auth = %v", f.auth)
	}
	if m.auth != reminder.Granted {
		t.Errorf("model auth = %v", m.auth)
	}
	if strings.Contains(m.View(), "Enable reminders") {
		t.Error("banner should be hidden once decided")
	}
	if m.status != "Reminders enabled" {
		t.Errorf("status = %q", m.status)
	}
}

func TestEnableRemindersDenied(t *testing.T) {
	m, _, f := newTestModel(t)
	f.grant = reminder.Denied

	m = press(t, m, "n")
	if m.auth != reminder.Denied {
		t.Errorf("auth = %v", m.auth)
	}
	if !strings.Contains(m.status, "unavailable") {
		t.Errorf("status = %q", m.status)
	}

	// Already decided; the key is a no-op.
	_, cmd := m.Update(runeKey("n"))
	if cmd != nil {
		t.Error("expected no command once authorization is decided")
	}
}

func TestReminderFired(t *testing.T) {
	m, _, _ := newTestModel(t, readHabit())

	m = send(t, m, ReminderFiredMsg{Habit: readHabit(), Delivered: true})
	if !strings.Contains(m.status, "Time for: Read") {
		t.Errorf("status = %q", m.status)
	}

	m.status = ""
	m = send(t, m, ReminderFiredMsg{Habit: readHabit(), Delivered: false})
	if m.status != "" {
		t.Errorf("undelivered reminder set status %q", m.status)
	}
}

func TestAddHabitForm(t *testing.T) {
	m, store, _ := newTestModel(t)

	m = press(t, m, "a")
	if m.state != StateAddHabit || m.form == nil {
		t.Fatalf("state = %v, form = %v", m.state, m.form)
	}
	if m.habitForm.Reminder != "09:00" {
		t.Errorf("default reminder = %q", m.habitForm.Reminder)
	}

	m.habitForm.Name = "Stretch"
	m.habitForm.Emoji = "🧘"
	m.habitForm.Reminder = "07:30"
	m.form.State = huh.StateCompleted
	m = send(t, m, nopMsg{})

	if m.state != StateHabits {
		t.Errorf("state = %v, want habits", m.state)
	}
	h, ok := store.FindByName("Stretch")
	if !ok {
		t.Fatal("habit not created")
	}
	if h.Emoji != "🧘" || h.Reminder == nil || h.Reminder.String() != "07:30" {
		t.Errorf("habit = %+v", h)
	}
	if !strings.Contains(m.View(), "Stretch") {
		t.Errorf("list not refreshed:\n%s", m.View())
	}
}

func TestAddHabitFormEscape(t *testing.T) {
	m, store, _ := newTestModel(t)

	m = press(t, m, "a")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.state != StateHabits {
		t.Errorf("state = %v, want habits", m.state)
	}
	if len(store.List()) != 0 {
		t.Error("escape should not create a habit")
	}
}

func TestEditReminderForm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"change", "21:15", "21:15"},
		{"clear", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store, _ := newTestModel(t, readHabit())

			m = press(t, m, "r")
			if m.state != StateEditReminder {
				t.Fatalf("state = %v", m.state)
			}
			if m.reminderForm.Time != "09:00" {
				t.Errorf("prefill = %q", m.reminderForm.Time)
			}

			m.reminderForm.Time = tt.input
			m.form.State = huh.StateCompleted
			m = send(t, m, nopMsg{})

			h, _ := store.Get("id-read")
			got := ""
			if h.Reminder != nil {
				got = h.Reminder.String()
			}
			if got != tt.want {
				t.Errorf("reminder = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)

	next, cmd := m.Update(runeKey("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if next.(Model).View() != "" {
		t.Error("view should be empty after quitting")
	}
}
