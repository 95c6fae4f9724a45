package habits

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/charmbracelet/log"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage/memory"
)

type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

func newTestStore(t *testing.T, seed ...models.Habit) (*Store, *memory.Store, *clock) {
	t.Helper()

	mem := memory.NewStore(seed...)
	c := &clock{t: time.Date(2026, time.April, 10, 12, 0, 0, 0, time.UTC)}
	n := 0
	s, err := Open(mem,
		WithClock(c.Now),
		WithLocation(time.UTC),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("habit-%d", n)
		}),
	)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, mem, c
}

func TestCreate(t *testing.T) {
	s, mem, c := newTestStore(t)
	r := models.ReminderTime{Hour: 9}

	h, err := s.Create("  Read  ", "📚", "#8b5cf6", &r)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if h.ID != "habit-1" {
		t.Errorf("ID = %q", h.ID)
	}
	if h.Name != "Read" {
		t.Errorf("Name = %q, want trimmed", h.Name)
	}
	if !h.CreatedAt.Equal(c.t) {
		t.Errorf("CreatedAt = %v, want %v", h.CreatedAt, c.t)
	}
	if len(h.CompletedDates) != 0 {
		t.Errorf("CompletedDates = %v, want empty", h.CompletedDates)
	}
	if h.Reminder == nil || *h.Reminder != r {
		t.Errorf("Reminder = %v, want %v", h.Reminder, r)
	}
	if mem.Saves() != 1 {
		t.Errorf("Saves = %d, want 1", mem.Saves())
	}
}

func TestCreateDefaults(t *testing.T) {
	s, _, _ := newTestStore(t)
	h, err := s.Create("Walk", "", " ", nil)
	if err != nil {
		t.Fatal(err)
	}
	if h.Emoji != constants.DefaultEmoji || h.Color != constants.DefaultColor {
		t.Errorf("defaults not applied: emoji=%q color=%q", h.Emoji, h.Color)
	}
	if h.Reminder != nil {
		t.Errorf("Reminder = %v, want nil", h.Reminder)
	}
}

func TestCreateRejectsBlankName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		s, mem, _ := newTestStore(t)
		_, err := s.Create(name, "✨", "#fff", nil)
		if !IsValidation(err) {
			t.Errorf("Create(%q) error = %v, want ValidationError", name, err)
		}
		if len(s.List()) != 0 {
			t.Errorf("Create(%q) changed state", name)
		}
		if mem.Saves() != 0 {
			t.Errorf("Create(%q) persisted", name)
		}
	}
}

func TestToggleTodayTwiceRestoresState(t *testing.T) {
	seed := models.Habit{
		ID:   "h1",
		Name: "Run",
		CompletedDates: []civil.Date{
			{Year: 2026, Month: time.April, Day: 8},
			{Year: 2026, Month: time.April, Day: 9},
		},
	}
	s, _, _ := newTestStore(t, seed)

	first, err := s.ToggleToday("h1")
	if err != nil {
		t.Fatal(err)
	}
	today := civil.Date{Year: 2026, Month: time.April, Day: 10}
	if !slices.Contains(first.CompletedDates, today) {
		t.Fatalf("after first toggle %v should contain %s", first.CompletedDates, today)
	}
	if first.CompletedDates[len(first.CompletedDates)-1] != today {
		t.Errorf("completed dates not kept sorted: %v", first.CompletedDates)
	}

	second, err := s.ToggleToday("h1")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(second.CompletedDates, seed.CompletedDates) {
		t.Errorf("after second toggle = %v, want %v", second.CompletedDates, seed.CompletedDates)
	}
}

func TestToggleTodayUsesStoreTimezone(t *testing.T) {
	mem := memory.NewStore(models.Habit{ID: "h1", Name: "Journal"})
	// 23:30 UTC is already the next day at UTC+2.
	now := time.Date(2026, time.April, 10, 23, 30, 0, 0, time.UTC)
	s, err := Open(mem, WithClock(func() time.Time { return now }), WithLocation(time.FixedZone("east", 2*60*60)))
	if err != nil {
		t.Fatal(err)
	}

	h, err := s.ToggleToday("h1")
	if err != nil {
		t.Fatal(err)
	}
	want := civil.Date{Year: 2026, Month: time.April, Day: 11}
	if len(h.CompletedDates) != 1 || h.CompletedDates[0] != want {
		t.Errorf("CompletedDates = %v, want [%s]", h.CompletedDates, want)
	}
}

func TestToggleTodayOnlyTouchesToday(t *testing.T) {
	s, _, c := newTestStore(t, models.Habit{ID: "h1", Name: "Run"})

	if _, err := s.ToggleToday("h1"); err != nil {
		t.Fatal(err)
	}
	c.t = c.t.AddDate(0, 0, 1)
	h, err := s.ToggleToday("h1")
	if err != nil {
		t.Fatal(err)
	}
	if len(h.CompletedDates) != 2 {
		t.Errorf("CompletedDates = %v, want two days", h.CompletedDates)
	}
}

func TestToggleTodayUnknownID(t *testing.T) {
	s, mem, _ := newTestStore(t)
	_, err := s.ToggleToday("missing")
	if !IsNotFound(err) {
		t.Errorf("error = %v, want NotFoundError", err)
	}
	if mem.Saves() != 0 {
		t.Error("unknown id should not persist")
	}
}

func TestDelete(t *testing.T) {
	s, mem, _ := newTestStore(t,
		models.Habit{ID: "a", Name: "A"},
		models.Habit{ID: "b", Name: "B"},
		models.Habit{ID: "c", Name: "C"},
	)

	if err := s.Delete("b"); err != nil {
		t.Fatal(err)
	}
	got := s.List()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("List() = %v, want [a c]", got)
	}
	persisted, _ := mem.Load()
	if len(persisted) != 2 {
		t.Errorf("persisted %d habits, want 2", len(persisted))
	}
}

func TestDeleteUnknownLeavesStoreUnchanged(t *testing.T) {
	s, mem, _ := newTestStore(t, models.Habit{ID: "a", Name: "A"})
	before := s.List()

	err := s.Delete("nope")
	if !IsNotFound(err) {
		t.Fatalf("Delete error = %v, want NotFoundError", err)
	}
	after := s.List()
	if len(after) != len(before) || after[0].ID != before[0].ID {
		t.Errorf("store changed: before %v after %v", before, after)
	}
	if mem.Saves() != 0 {
		t.Error("failed delete should not persist")
	}
}

func TestListIsCreationOrderAndReadOnly(t *testing.T) {
	s, _, _ := newTestStore(t)
	for _, name := range []string{"one", "two", "three"} {
		if _, err := s.Create(name, "", "", nil); err != nil {
			t.Fatal(err)
		}
	}

	list := s.List()
	for i, want := range []string{"one", "two", "three"} {
		if list[i].Name != want {
			t.Errorf("List()[%d] = %q, want %q", i, list[i].Name, want)
		}
	}

	list[0].Name = "mutated"
	list[0].CompletedDates = append(list[0].CompletedDates, civil.Date{Year: 2000, Month: 1, Day: 1})
	fresh := s.List()
	if fresh[0].Name != "one" || len(fresh[0].CompletedDates) != 0 {
		t.Error("List() returned shared state")
	}
}

func TestSetReminder(t *testing.T) {
	s, _, _ := newTestStore(t, models.Habit{ID: "h1", Name: "Water"})

	r := models.ReminderTime{Hour: 14, Minute: 30}
	h, err := s.SetReminder("h1", &r)
	if err != nil {
		t.Fatal(err)
	}
	if h.Reminder == nil || *h.Reminder != r {
		t.Errorf("Reminder = %v, want %v", h.Reminder, r)
	}

	h, err = s.SetReminder("h1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if h.Reminder != nil {
		t.Errorf("Reminder = %v, want cleared", h.Reminder)
	}

	if _, err := s.SetReminder("missing", &r); !IsNotFound(err) {
		t.Errorf("SetReminder(missing) error = %v", err)
	}
}

func TestSubscribersSeeEveryMutation(t *testing.T) {
	s, _, _ := newTestStore(t)

	var sizes []int
	s.Subscribe(func(h []models.Habit) { sizes = append(sizes, len(h)) })

	a, _ := s.Create("a", "", "", nil)
	_, _ = s.Create("b", "", "", nil)
	_, _ = s.ToggleToday(a.ID)
	_ = s.Delete(a.ID)
	_ = s.Delete(a.ID) // not found: no notification

	want := []int{1, 2, 2, 1}
	if !slices.Equal(sizes, want) {
		t.Errorf("subscriber saw %v, want %v", sizes, want)
	}
}

func TestWatchStartsWithCurrentSnapshot(t *testing.T) {
	s, _, _ := newTestStore(t)
	_, _ = s.Create("a", "", "", nil)

	var sizes []int
	s.Watch(func(h []models.Habit) { sizes = append(sizes, len(h)) })
	_, _ = s.Create("b", "", "", nil)

	if want := []int{1, 2}; !slices.Equal(sizes, want) {
		t.Errorf("watcher saw %v, want %v", sizes, want)
	}
}

func TestSaveFailureKeepsMemoryStateAndRetries(t *testing.T) {
	s, mem, _ := newTestStore(t)
	mem.FailSaves(true)

	h, err := s.Create("Floss", "", "", nil)
	if err != nil {
		t.Fatalf("Create should not surface persistence errors: %v", err)
	}
	if !s.Dirty() {
		t.Error("store should be dirty after a failed save")
	}
	if len(s.List()) != 1 {
		t.Error("in-memory state lost after failed save")
	}
	if err := s.Flush(); err == nil {
		t.Error("Flush should fail while saves fail")
	}

	mem.FailSaves(false)
	if _, err := s.ToggleToday(h.ID); err != nil {
		t.Fatal(err)
	}
	if s.Dirty() {
		t.Error("next successful mutation should clear dirty flag")
	}
	persisted, _ := mem.Load()
	if len(persisted) != 1 || len(persisted[0].CompletedDates) != 1 {
		t.Errorf("retry did not persist full snapshot: %v", persisted)
	}
}

func TestFlush(t *testing.T) {
	s, mem, _ := newTestStore(t)
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush on clean store: %v", err)
	}

	mem.FailSaves(true)
	_, _ = s.Create("Plan", "", "", nil)
	mem.FailSaves(false)
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	if s.Dirty() {
		t.Error("dirty after successful flush")
	}
	persisted, _ := mem.Load()
	if len(persisted) != 1 {
		t.Errorf("persisted %d habits, want 1", len(persisted))
	}
}

func TestOpenNormalizesLoadedDates(t *testing.T) {
	d := func(day int) civil.Date { return civil.Date{Year: 2026, Month: 4, Day: day} }
	s, _, _ := newTestStore(t, models.Habit{ID: "h", Name: "x", CompletedDates: []civil.Date{d(3), d(1), d(3)}})
	h, _ := s.Get("h")
	if !slices.Equal(h.CompletedDates, []civil.Date{d(1), d(3)}) {
		t.Errorf("CompletedDates = %v", h.CompletedDates)
	}
}

func TestResolve(t *testing.T) {
	s, _, _ := newTestStore(t, models.Habit{ID: "id-1", Name: "Morning Run"})

	if h, err := s.Resolve("id-1"); err != nil || h.Name != "Morning Run" {
		t.Errorf("Resolve(id) = %v, %v", h, err)
	}
	if h, err := s.Resolve("morning run"); err != nil || h.ID != "id-1" {
		t.Errorf("Resolve(name) = %v, %v", h, err)
	}
	if _, err := s.Resolve("evening run"); !IsNotFound(err) {
		t.Errorf("Resolve(unknown) error = %v", err)
	}
}

func TestResolveUnknownLogsStaleReference(t *testing.T) {
	var buf bytes.Buffer
	logger.Logger = log.New(&buf)
	t.Cleanup(func() { logger.Logger = nil })

	s, _, _ := newTestStore(t, models.Habit{ID: "id-1", Name: "Read"})
	if _, err := s.Resolve("id-1"); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("resolving a known habit logged %q", buf.String())
	}

	if _, err := s.Resolve("gone"); !IsNotFound(err) {
		t.Fatalf("Resolve(gone) error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Ignoring stale habit reference") || !strings.Contains(out, "op=resolve") {
		t.Errorf("log output = %q", out)
	}
}

func TestReminderOutOfRangeRejected(t *testing.T) {
	tests := []struct {
		name     string
		reminder models.ReminderTime
		wantErr  bool
	}{
		{name: "midnight", reminder: models.ReminderTime{}},
		{name: "last minute", reminder: models.ReminderTime{Hour: 23, Minute: 59}},
		{name: "hour 24", reminder: models.ReminderTime{Hour: 24}, wantErr: true},
		{name: "hour 25", reminder: models.ReminderTime{Hour: 25}, wantErr: true},
		{name: "minute 60", reminder: models.ReminderTime{Hour: 9, Minute: 60}, wantErr: true},
		{name: "negative hour", reminder: models.ReminderTime{Hour: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mem, _ := newTestStore(t, models.Habit{ID: "seed", Name: "Walk"})

			_, err := s.Create("Read", "", "", &tt.reminder)
			if tt.wantErr != IsValidation(err) || (!tt.wantErr && err != nil) {
				t.Errorf("Create error = %v, wantErr %v", err, tt.wantErr)
			}

			_, err = s.SetReminder("seed", &tt.reminder)
			if tt.wantErr != IsValidation(err) || (!tt.wantErr && err != nil) {
				t.Errorf("SetReminder error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				if len(s.List()) != 1 {
					t.Errorf("rejected create changed state: %v", s.List())
				}
				if h, _ := s.Get("seed"); h.Reminder != nil {
					t.Errorf("rejected reminder stored: %v", h.Reminder)
				}
				if mem.Saves() != 0 {
					t.Errorf("Saves = %d, want 0", mem.Saves())
				}
			}
		})
	}
}

func TestReloadPicksUpOtherWriters(t *testing.T) {
	s, mem, _ := newTestStore(t, models.Habit{ID: "a", Name: "Read", Reminder: &models.ReminderTime{Hour: 9}})
	other, err := Open(mem, WithIDGenerator(func() string { return "b" }))
	if err != nil {
		t.Fatal(err)
	}

	var seen [][]models.Habit
	s.Subscribe(func(snap []models.Habit) { seen = append(seen, snap) })

	if err := other.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := other.Create("Walk", "", "", &models.ReminderTime{Hour: 18}); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get("a"); !ok {
		t.Fatal("store saw the other writer before reloading")
	}

	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if _, ok := s.Get("a"); ok {
		t.Error("habit deleted elsewhere still present after reload")
	}
	if h, ok := s.Get("b"); !ok || h.Reminder == nil || h.Reminder.Hour != 18 {
		t.Errorf("habit created elsewhere = %v, %v", h, ok)
	}
	if len(seen) != 1 || len(seen[0]) != 1 || seen[0][0].ID != "b" {
		t.Errorf("subscriber saw %v", seen)
	}
}

func TestReloadKeepsPendingWrite(t *testing.T) {
	s, mem, _ := newTestStore(t)
	mem.FailSaves(true)
	if _, err := s.Create("Stretch", "", "", nil); err != nil {
		t.Fatal(err)
	}

	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(s.List()) != 1 {
		t.Error("reload discarded an unsaved habit")
	}
	if !s.Dirty() {
		t.Error("reload cleared the pending write")
	}
}

func TestToday(t *testing.T) {
	s, _, _ := newTestStore(t)
	if got := s.Today(); got != (civil.Date{Year: 2026, Month: time.April, Day: 10}) {
		t.Errorf("Today() = %s", got)
	}
}
