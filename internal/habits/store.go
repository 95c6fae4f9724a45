// Package habits owns the authoritative in-memory habit collection. Every
// mutation is written through to the durable store and announced to
// subscribers such as the reminder scheduler.
package habits

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// Persistence is the durable collaborator the store loads from and saves to.
type Persistence interface {
	Load() ([]models.Habit, error)
	Save([]models.Habit) error
}

// Subscriber receives the full snapshot after every mutation.
type Subscriber func([]models.Habit)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the time zone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

type Store struct {
	mu          sync.Mutex
	persistence Persistence
	habits      []models.Habit
	subscribers []Subscriber
	dirty       bool

	now   func() time.Time
	loc   *time.Location
	newID func() string
}

// Open loads the persisted collection and returns a store owning it.
func Open(p Persistence, opts ...Option) (*Store, error) {
	s := &Store{
		persistence: p,
		now:         time.Now,
		loc:         time.Local,
		newID:       func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := p.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	s.habits = normalize(loaded)
	logger.Debug("Habit store opened", "habits", len(s.habits))
	return s, nil
}

// Reload replaces the collection with what is currently persisted and
// notifies subscribers, picking up writes made by other processes. A store
// with an outstanding failed write keeps its own state.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty {
		logger.Debug("Skipping reload while a write is pending")
		return nil
	}
	loaded, err := s.persistence.Load()
	if err != nil {
		return fmt.Errorf("failed to reload habits: %w", err)
	}
	s.habits = normalize(loaded)
	for _, fn := range s.subscribers {
		fn(s.snapshot())
	}
	logger.Debug("Habit store reloaded", "habits", len(s.habits))
	return nil
}

func normalize(loaded []models.Habit) []models.Habit {
	out := make([]models.Habit, 0, len(loaded))
	for _, h := range loaded {
		h = h.Clone()
		h.CompletedDates = models.NormalizeDates(h.CompletedDates)
		out = append(out, h)
	}
	return out
}

// Today is the current calendar day in the store's time zone.
func (s *Store) Today() civil.Date {
	return utils.DayOf(s.now(), s.loc)
}

// Location is the time zone used for day boundaries.
func (s *Store) Location() *time.Location {
	return s.loc
}

// Now is the store's clock.
func (s *Store) Now() time.Time {
	return s.now().In(s.loc)
}

// Subscribe registers fn to be called with the new snapshot after each
// mutation. fn runs while the store is locked and must not mutate it.
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Watch subscribes fn and immediately calls it with the current snapshot,
// so a watcher never misses a mutation between reading and subscribing.
func (s *Store) Watch(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
	fn(s.snapshot())
}

// Create adds a new habit with an empty completion set.
func (s *Store) Create(name, emoji, color string, reminder *models.ReminderTime) (models.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Habit{}, &ValidationError{Field: "name", Reason: "cannot be empty"}
	}
	if strings.TrimSpace(emoji) == "" {
		emoji = constants.DefaultEmoji
	}
	if strings.TrimSpace(color) == "" {
		color = constants.DefaultColor
	}

	habit := models.Habit{
		ID:             s.newID(),
		Name:           name,
		Emoji:          emoji,
		Color:          color,
		CreatedAt:      s.now(),
		CompletedDates: []civil.Date{},
	}
	if reminder != nil {
		if err := reminder.Validate(); err != nil {
			return models.Habit{}, &ValidationError{Field: "reminder", Reason: err.Error()}
		}
		r := *reminder
		habit.Reminder = &r
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.habits = append(s.habits, habit)
	s.commit()
	logger.Info("Habit created", "id", habit.ID, "name", habit.Name)
	return habit.Clone(), nil
}

// ToggleToday marks today done, or un-marks it when it already is.
func (s *Store) ToggleToday(id string) (models.Habit, error) {
	today := s.Today()

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Habit{}, s.notFound("toggle", id)
	}

	h := &s.habits[i]
	if pos, found := slices.BinarySearchFunc(h.CompletedDates, today, models.CompareDates); found {
		h.CompletedDates = slices.Delete(h.CompletedDates, pos, pos+1)
		logger.Debug("Habit unmarked", "id", id, "day", today)
	} else {
		h.CompletedDates = slices.Insert(h.CompletedDates, pos, today)
		logger.Debug("Habit marked", "id", id, "day", today)
	}

	s.commit()
	return h.Clone(), nil
}

// SetReminder replaces the habit's reminder; nil clears it.
func (s *Store) SetReminder(id string, reminder *models.ReminderTime) (models.Habit, error) {
	if reminder != nil {
		if err := reminder.Validate(); err != nil {
			return models.Habit{}, &ValidationError{Field: "reminder", Reason: err.Error()}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Habit{}, s.notFound("set reminder", id)
	}

	if reminder == nil {
		s.habits[i].Reminder = nil
	} else {
		r := *reminder
		s.habits[i].Reminder = &r
	}

	s.commit()
	return s.habits[i].Clone(), nil
}

// Delete removes a habit permanently.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return s.notFound("delete", id)
	}

	name := s.habits[i].Name
	s.habits = slices.Delete(s.habits, i, i+1)
	s.commit()
	logger.Info("Habit deleted", "id", id, "name", name)
	return nil
}

// List returns snapshots of all habits in creation order.
func (s *Store) List() []models.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Get returns a snapshot of one habit.
func (s *Store) Get(id string) (models.Habit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Habit{}, false
	}
	return s.habits[i].Clone(), true
}

// FindByName returns the first habit whose name matches case-insensitively.
func (s *Store) FindByName(name string) (models.Habit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	for _, h := range s.habits {
		if strings.EqualFold(h.Name, name) {
			return h.Clone(), true
		}
	}
	return models.Habit{}, false
}

// Resolve looks a habit up by id first, then by name.
func (s *Store) Resolve(ref string) (models.Habit, error) {
	if h, ok := s.Get(ref); ok {
		return h, nil
	}
	if h, ok := s.FindByName(ref); ok {
		return h, nil
	}
	return models.Habit{}, s.notFound("resolve", ref)
}

// Dirty reports whether the last save failed and a write is outstanding.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush retries a pending write. It is a no-op when nothing is outstanding.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	if err := s.persistence.Save(s.snapshot()); err != nil {
		return fmt.Errorf("failed to save habits: %w", err)
	}
	s.dirty = false
	return nil
}

// commit persists the collection and notifies subscribers. Caller holds mu.
func (s *Store) commit() {
	snap := s.snapshot()
	if err := s.persistence.Save(snap); err != nil {
		s.dirty = true
		logger.Warn("Failed to persist habits, will retry on next change", "error", err)
	} else {
		s.dirty = false
	}

	for _, fn := range s.subscribers {
		fn(s.snapshot())
	}
}

func (s *Store) snapshot() []models.Habit {
	out := make([]models.Habit, len(s.habits))
	for i, h := range s.habits {
		out[i] = h.Clone()
	}
	return out
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.habits, func(h models.Habit) bool { return h.ID == id })
}

func (s *Store) notFound(op, id string) error {
	logger.Warn("Ignoring stale habit reference", "op", op, "id", id)
	return &NotFoundError{ID: id}
}
