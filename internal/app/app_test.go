package app

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/storage/jsonfile"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

type manualFacility struct {
	mu     sync.Mutex
	timers []func()
}

type noopHandle struct{}

func (noopHandle) Cancel() bool { return true }

func (f *manualFacility) After(_ time.Duration, fn func()) reminder.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timers = append(f.timers, fn)
	return noopHandle{}
}

func (f *manualFacility) QueryAuthorization() reminder.Authorization { return reminder.Granted }

func (f *manualFacility) RequestAuthorization(context.Context) (reminder.Authorization, error) {
	return reminder.Granted, nil
}

func testConfig(t *testing.T, store string) *config.Config {
	t.Helper()
	cfg, err := config.New(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Timezone = "UTC"
	cfg.Store = store
	return cfg
}

func TestNewSelectsBackendsFromConfig(t *testing.T) {
	dir := t.TempDir()

	a, err := New(testConfig(t, filepath.Join(dir, "habits.json")), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := a.Provider.(*jsonfile.Store); !ok {
		t.Errorf("provider = %T, want *jsonfile.Store", a.Provider)
	}
	if _, ok := a.Notifier.(*notifier.Tray); !ok {
		t.Errorf("notifier = %T, want *notifier.Tray", a.Notifier)
	}
	if _, ok := a.Facility.(*reminder.TimerFacility); !ok {
		t.Errorf("facility = %T, want *reminder.TimerFacility", a.Facility)
	}

	cfg := testConfig(t, filepath.Join(dir, "habits.db"))
	cfg.Notifications.Backend = "console"
	a, err = New(cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := a.Provider.(*sqlite.Store); !ok {
		t.Errorf("provider = %T, want *sqlite.Store", a.Provider)
	}
	if _, ok := a.Notifier.(*notifier.Console); !ok {
		t.Errorf("notifier = %T, want *notifier.Console", a.Notifier)
	}
}

func TestStartRemindersFollowsStoreChanges(t *testing.T) {
	now := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	fac := &manualFacility{}

	cfg := testConfig(t, "unused")
	cfg.Notifications.Backend = "console"
	a, err := New(cfg, &out,
		WithProvider(memory.NewStore()),
		WithFacility(fac),
		WithClock(func() time.Time { return now }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	store, err := a.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sched, err := a.StartReminders()
	if err != nil {
		t.Fatalf("StartReminders: %v", err)
	}

	h, err := store.Create("Read", "", "", &models.ReminderTime{Hour: 9})
	if err != nil {
		t.Fatal(err)
	}
	if state, _ := sched.Status(h.ID); state != reminder.Pending {
		t.Fatalf("state after create = %s", state)
	}

	fac.mu.Lock()
	fire := fac.timers[len(fac.timers)-1]
	fac.mu.Unlock()
	now = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	fire()

	if !bytes.Contains(out.Bytes(), []byte("Time for: Read")) {
		t.Errorf("console output = %q", out.String())
	}

	if err := store.Delete(h.ID); err != nil {
		t.Fatal(err)
	}
	if state, _ := sched.Status(h.ID); state != reminder.Unscheduled {
		t.Errorf("state after delete = %s", state)
	}
}

func TestCloseFlushesAndClosesProvider(t *testing.T) {
	mem := memory.NewStore()
	a, err := New(testConfig(t, "unused"), &bytes.Buffer{}, WithProvider(mem), WithFacility(&manualFacility{}))
	if err != nil {
		t.Fatal(err)
	}
	store, err := a.Open()
	if err != nil {
		t.Fatal(err)
	}

	mem.FailSaves(true)
	if _, err := store.Create("Floss", "", "", nil); err != nil {
		t.Fatal(err)
	}
	mem.FailSaves(false)

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if mem.Saves() != 1 {
		t.Errorf("saves = %d, want the pending write flushed", mem.Saves())
	}
	if !mem.Closed() {
		t.Error("provider not closed")
	}
}

func TestRemindersFollowOtherProcessesSharingTheStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.json")
	seed, err := habits.Open(jsonfile.New(path))
	if err != nil {
		t.Fatal(err)
	}
	read, err := seed.Create("Read", "📚", "", &models.ReminderTime{Hour: 9})
	if err != nil {
		t.Fatal(err)
	}

	now := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	fac := &manualFacility{}
	cfg := testConfig(t, path)
	cfg.Notifications.Backend = "console"
	a, err := New(cfg, &out,
		WithProvider(jsonfile.New(path)),
		WithFacility(fac),
		WithClock(func() time.Time { return now }),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	sched, err := a.StartReminders()
	if err != nil {
		t.Fatal(err)
	}
	if state, _ := sched.Status(read.ID); state != reminder.Pending {
		t.Fatalf("state at start = %s", state)
	}
	fac.mu.Lock()
	fire := fac.timers[0]
	fac.mu.Unlock()

	other, err := habits.Open(jsonfile.New(path))
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Delete(read.ID); err != nil {
		t.Fatal(err)
	}
	walk, err := other.Create("Walk", "", "", &models.ReminderTime{Hour: 18})
	if err != nil {
		t.Fatal(err)
	}

	now = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	fire()

	if out.Len() != 0 {
		t.Errorf("reminder delivered for a habit deleted on disk: %q", out.String())
	}
	if state, _ := sched.Status(read.ID); state != reminder.Unscheduled {
		t.Errorf("deleted habit state = %s, want unscheduled", state)
	}
	state, next := sched.Status(walk.ID)
	if state != reminder.Pending || next.Hour() != 18 {
		t.Errorf("habit added on disk = %s at %v, want pending at 18:00", state, next)
	}
}

func TestFacilitySeesPermissionSavedElsewhere(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "habits.json"))
	cfg.Notifications.Backend = "console"
	if err := cfg.SetAuthorization(constants.AuthorizationGranted); err != nil {
		t.Fatal(err)
	}
	a, err := New(cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if got := a.Facility.QueryAuthorization(); got != reminder.Granted {
		t.Fatalf("authorization = %s, want granted", got)
	}

	other, err := config.Load(cfg.Path())
	if err != nil {
		t.Fatal(err)
	}
	if err := other.SetAuthorization(constants.AuthorizationDenied); err != nil {
		t.Fatal(err)
	}

	if got := a.Facility.QueryAuthorization(); got != reminder.Denied {
		t.Errorf("authorization = %s after it was revoked on disk, want denied", got)
	}
}
