// Package streak derives streaks and week views from a habit's completion
// history. Everything here is pure: callers pass the reference day.
package streak

import (
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/civil"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

// DayLabel is one column of the week view.
type DayLabel struct {
	Day   civil.Date
	Label string // single-letter weekday abbreviation
}

// DayMark is a DayLabel with the habit's completion state for that day.
type DayMark struct {
	DayLabel
	Completed bool
}

// HabitView is the derived display data for one habit.
type HabitView struct {
	Habit          models.Habit
	Streak         int
	CompletedToday bool
	Week           []DayMark
}

// CurrentStreak counts consecutive completed days ending today, or ending
// yesterday when today has not been marked yet.
//
// Dates are walked newest first. The entry at index i must be exactly i days
// before today. The only exception is the newest entry being yesterday: the
// run is then aligned to yesterday and every later entry must sit one day
// further back than its index. Any other gap ends the streak.
func CurrentStreak(completed []civil.Date, today civil.Date) int {
	dates := models.NormalizeDates(completed)
	slices.Reverse(dates)

	streak := 0
	offset := 0
	for i, date := range dates {
		gap := today.DaysSince(date)
		switch {
		case gap == i+offset:
			streak++
		case i == 0 && gap == 1:
			offset = 1
			streak++
		default:
			return streak
		}
	}
	return streak
}

// IsCompletedOn reports whether day is in the completion set.
func IsCompletedOn(completed []civil.Date, day civil.Date) bool {
	return slices.Contains(completed, day)
}

// Last7Days returns the seven calendar days ending at today, oldest first.
func Last7Days(today civil.Date) []DayLabel {
	days := make([]DayLabel, 0, constants.WeekLength)
	for i := constants.WeekLength - 1; i >= 0; i-- {
		d := today.AddDays(-i)
		days = append(days, DayLabel{Day: d, Label: WeekdayLabel(d)})
	}
	return days
}

// WeekdayLabel is the first letter of the day's English weekday abbreviation.
func WeekdayLabel(d civil.Date) string {
	return d.In(time.UTC).Weekday().String()[:1]
}

// Week marks each of the last seven days with its completion state.
func Week(completed []civil.Date, today civil.Date) []DayMark {
	labels := Last7Days(today)
	marks := make([]DayMark, len(labels))
	for i, l := range labels {
		marks[i] = DayMark{DayLabel: l, Completed: IsCompletedOn(completed, l.Day)}
	}
	return marks
}

// Summarize builds the display data for a habit.
func Summarize(h models.Habit, today civil.Date) HabitView {
	return HabitView{
		Habit:          h,
		Streak:         CurrentStreak(h.CompletedDates, today),
		CompletedToday: IsCompletedOn(h.CompletedDates, today),
		Week:           Week(h.CompletedDates, today),
	}
}

// CompletedToday counts habits marked done on today.
func CompletedToday(habits []models.Habit, today civil.Date) int {
	n := 0
	for _, h := range habits {
		if IsCompletedOn(h.CompletedDates, today) {
			n++
		}
	}
	return n
}

// FormatStreak renders a streak as "1 day" or "N days".
func FormatStreak(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
