package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/julianstephens/habitual/internal/constants"
)

// Habit represents a tracked daily behavior
type Habit struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Emoji          string        `json:"emoji"`
	Color          string        `json:"color"`
	CreatedAt      time.Time     `json:"createdAt"`
	CompletedDates []civil.Date  `json:"completedDates"`
	Reminder       *ReminderTime `json:"reminderTime,omitempty"`
}

// Validate checks the invariants every stored habit must hold.
func (h *Habit) Validate() error {
	if h.ID == "" {
		return fmt.Errorf("habit id cannot be empty")
	}
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("habit name cannot be empty")
	}
	for i := 1; i < len(h.CompletedDates); i++ {
		if !h.CompletedDates[i-1].Before(h.CompletedDates[i]) {
			return fmt.Errorf("completed dates must be sorted and unique (%s, %s)",
				h.CompletedDates[i-1], h.CompletedDates[i])
		}
	}
	if h.Reminder != nil {
		return h.Reminder.Validate()
	}
	return nil
}

// Clone returns a deep copy so callers can't mutate the owner's slices.
func (h Habit) Clone() Habit {
	c := h
	if h.CompletedDates != nil {
		c.CompletedDates = slices.Clone(h.CompletedDates)
	}
	if h.Reminder != nil {
		r := *h.Reminder
		c.Reminder = &r
	}
	return c
}

// HasReminder reports whether a daily reminder is configured.
func (h *Habit) HasReminder() bool {
	return h.Reminder != nil
}

// CompareDates orders calendar days chronologically.
func CompareDates(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// NormalizeDates sorts days ascending and drops duplicates and invalid values.
func NormalizeDates(days []civil.Date) []civil.Date {
	out := make([]civil.Date, 0, len(days))
	for _, d := range days {
		if d.IsValid() {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, CompareDates)
	return slices.Compact(out)
}

// ReminderTime is a wall-clock time of day (no date) at which a reminder fires.
type ReminderTime struct {
	Hour   int
	Minute int
}

// ParseReminderTime parses an HH:MM string.
func ParseReminderTime(s string) (ReminderTime, error) {
	t, err := time.Parse(constants.TimeFormat, strings.TrimSpace(s))
	if err != nil {
		return ReminderTime{}, fmt.Errorf("invalid time format (expected HH:MM): %w", err)
	}
	return ReminderTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Validate rejects times of day a clock can't show.
func (r ReminderTime) Validate() error {
	if r.Hour < 0 || r.Hour > 23 {
		return fmt.Errorf("reminder hour %d out of range 0-23", r.Hour)
	}
	if r.Minute < 0 || r.Minute > 59 {
		return fmt.Errorf("reminder minute %d out of range 0-59", r.Minute)
	}
	return nil
}

func (r ReminderTime) String() string {
	return fmt.Sprintf("%02d:%02d", r.Hour, r.Minute)
}

// On returns the instant this time of day occurs on the given date in loc.
func (r ReminderTime) On(d civil.Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, r.Hour, r.Minute, 0, 0, loc)
}

func (r ReminderTime) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *ReminderTime) UnmarshalText(data []byte) error {
	parsed, err := ParseReminderTime(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
