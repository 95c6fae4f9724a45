// Package sqldb holds the queries shared by the SQL backends. Statements are
// written with ? placeholders and rebound for the connection's driver.
package sqldb

import (
	"database/sql"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jmoiron/sqlx"

	"github.com/julianstephens/habitual/internal/models"
)

type habitRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Emoji        string         `db:"emoji"`
	Color        string         `db:"color"`
	CreatedAt    string         `db:"created_at"`
	ReminderTime sql.NullString `db:"reminder_time"`
	Position     int            `db:"position"`
}

type completionRow struct {
	HabitID string `db:"habit_id"`
	Day     string `db:"day"`
}

// Load reads every habit in stored order together with its completion days.
func Load(db *sqlx.DB) ([]models.Habit, error) {
	var rows []habitRow
	if err := db.Select(&rows, `
		SELECT id, name, emoji, color, created_at, reminder_time, position
		FROM habits ORDER BY position, created_at`); err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}

	var completions []completionRow
	if err := db.Select(&completions, "SELECT habit_id, day FROM habit_completions"); err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}

	days := make(map[string][]civil.Date, len(rows))
	for _, c := range completions {
		d, err := civil.ParseDate(c.Day)
		if err != nil {
			return nil, fmt.Errorf("invalid completion day %q for habit %s: %w", c.Day, c.HabitID, err)
		}
		days[c.HabitID] = append(days[c.HabitID], d)
	}

	habits := make([]models.Habit, 0, len(rows))
	for _, r := range rows {
		h, err := r.toHabit()
		if err != nil {
			return nil, err
		}
		h.CompletedDates = models.NormalizeDates(days[r.ID])
		habits = append(habits, h)
	}
	return habits, nil
}

// Save replaces the stored collection with habits in a single transaction.
func Save(db *sqlx.DB, habits []models.Habit) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(habits))
	for i, h := range habits {
		row := fromHabit(h, i)
		if _, err := tx.NamedExec(`
			INSERT INTO habits (id, name, emoji, color, created_at, reminder_time, position)
			VALUES (:id, :name, :emoji, :color, :created_at, :reminder_time, :position)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				emoji = excluded.emoji,
				color = excluded.color,
				reminder_time = excluded.reminder_time,
				position = excluded.position`, row); err != nil {
			return fmt.Errorf("failed to save habit %s: %w", h.ID, err)
		}
		ids = append(ids, h.ID)
	}

	if _, err := tx.Exec("DELETE FROM habit_completions"); err != nil {
		return fmt.Errorf("failed to clear completions: %w", err)
	}

	if len(ids) == 0 {
		if _, err := tx.Exec("DELETE FROM habits"); err != nil {
			return fmt.Errorf("failed to delete habits: %w", err)
		}
	} else {
		query, args, err := sqlx.In("DELETE FROM habits WHERE id NOT IN (?)", ids)
		if err != nil {
			return fmt.Errorf("failed to build delete query: %w", err)
		}
		if _, err := tx.Exec(tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("failed to delete removed habits: %w", err)
		}
	}

	for _, h := range habits {
		for _, d := range h.CompletedDates {
			if _, err := tx.NamedExec(
				"INSERT INTO habit_completions (habit_id, day) VALUES (:habit_id, :day)",
				completionRow{HabitID: h.ID, Day: d.String()},
			); err != nil {
				return fmt.Errorf("failed to save completion %s for habit %s: %w", d, h.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func fromHabit(h models.Habit, position int) habitRow {
	row := habitRow{
		ID:        h.ID,
		Name:      h.Name,
		Emoji:     h.Emoji,
		Color:     h.Color,
		CreatedAt: h.CreatedAt.UTC().Format(time.RFC3339Nano),
		Position:  position,
	}
	if h.Reminder != nil {
		row.ReminderTime = sql.NullString{String: h.Reminder.String(), Valid: true}
	}
	return row
}

func (r habitRow) toHabit() (models.Habit, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at for habit %s: %w", r.ID, err)
	}

	h := models.Habit{
		ID:        r.ID,
		Name:      r.Name,
		Emoji:     r.Emoji,
		Color:     r.Color,
		CreatedAt: createdAt,
	}
	if r.ReminderTime.Valid && r.ReminderTime.String != "" {
		rt, err := models.ParseReminderTime(r.ReminderTime.String)
		if err != nil {
			return models.Habit{}, fmt.Errorf("habit %s: %w", r.ID, err)
		}
		h.Reminder = &rt
	}
	return h, nil
}
