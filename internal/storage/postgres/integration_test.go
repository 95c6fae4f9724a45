package postgres

import (
	"os"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/julianstephens/habitual/internal/models"
)

// TestStore_Integration runs against a real database.
// Example: HABITUAL_TEST_POSTGRES="postgres://habitual@localhost:5432/habitual_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("HABITUAL_TEST_POSTGRES")
	if connStr == "" {
		t.Skip("HABITUAL_TEST_POSTGRES not set, skipping PostgreSQL integration test")
	}

	store := New(connStr)
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	habits := []models.Habit{
		{
			ID:             "it-1",
			Name:           "Meditate",
			Emoji:          "🧘",
			Color:          "#8b5cf6",
			CreatedAt:      time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC),
			CompletedDates: []civil.Date{{Year: 2026, Month: 1, Day: 5}, {Year: 2026, Month: 1, Day: 6}},
			Reminder:       &models.ReminderTime{Hour: 7, Minute: 30},
		},
	}

	if err := store.Save(habits); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Save(nil) })

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "it-1" || got[0].Name != "Meditate" {
		t.Fatalf("unexpected habits: %+v", got)
	}
	if len(got[0].CompletedDates) != 2 {
		t.Errorf("completions = %v, want 2", got[0].CompletedDates)
	}
	if got[0].Reminder == nil || got[0].Reminder.String() != "07:30" {
		t.Errorf("reminder = %v, want 07:30", got[0].Reminder)
	}
}
