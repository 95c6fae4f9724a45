// Package reminder keeps one daily timer per habit that has a reminder time
// and delivers a notification when it fires.
package reminder

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/notifier"
)

// State is where a habit's reminder is in its daily cycle.
type State int

const (
	Unscheduled State = iota
	Pending
	Fired
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fired:
		return "fired"
	default:
		return "unscheduled"
	}
}

// Lookup fetches the current version of a habit.
type Lookup func(id string) (models.Habit, bool)

// Entry describes one scheduled reminder.
type Entry struct {
	HabitID  string
	Reminder models.ReminderTime
	At       time.Time
	State    State
}

type entry struct {
	reminder   models.ReminderTime
	at         time.Time
	handle     Handle
	generation uint64
	state      State
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLocation sets the zone reminder times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithFireHook is called after every fire that reached a live habit.
func WithFireHook(fn func(h models.Habit, delivered bool)) Option {
	return func(s *Scheduler) { s.onFire = fn }
}

type Scheduler struct {
	mu       sync.Mutex
	facility Facility
	notifier notifier.Notifier
	lookup   Lookup
	entries  map[string]*entry
	gen      uint64
	stopped  bool

	ctx    context.Context
	cancel context.CancelFunc

	now    func() time.Time
	loc    *time.Location
	onFire func(models.Habit, bool)
}

func New(f Facility, n notifier.Notifier, lookup Lookup, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		facility: f,
		notifier: n,
		lookup:   lookup,
		entries:  make(map[string]*entry),
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextFire returns the first instant strictly after now at which rt occurs
// in now's location.
func NextFire(now time.Time, rt models.ReminderTime) time.Time {
	day := civil.DateOf(now)
	at := rt.On(day, now.Location())
	if !at.After(now) {
		at = rt.On(day.AddDays(1), now.Location())
	}
	return at
}

// Reconcile brings the timers in line with habits. Habits without a
// reminder, or missing from habits, lose their timer. Changed reminders are
// rescheduled and unchanged ones, pending or mid-fire, are left alone.
func (s *Scheduler) Reconcile(habits []models.Habit) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	desired := make(map[string]models.ReminderTime, len(habits))
	for _, h := range habits {
		if h.Reminder != nil {
			desired[h.ID] = *h.Reminder
		}
	}

	for id, e := range s.entries {
		if _, ok := desired[id]; !ok {
			e.handle.Cancel()
			delete(s.entries, id)
			logger.Debug("Reminder cancelled", "habit", id)
		}
	}

	now := s.now()
	for _, h := range habits {
		rt, ok := desired[h.ID]
		if !ok {
			continue
		}
		if e, exists := s.entries[h.ID]; exists {
			if e.reminder == rt {
				continue
			}
			e.handle.Cancel()
		}
		s.schedule(h.ID, rt, now)
	}
}

// schedule arms a fresh timer for id after the given instant. Caller holds mu.
func (s *Scheduler) schedule(id string, rt models.ReminderTime, after time.Time) {
	at := NextFire(after.In(s.loc), rt)
	s.gen++
	gen := s.gen

	e := &entry{reminder: rt, at: at, generation: gen, state: Pending}
	s.entries[id] = e

	d := at.Sub(s.now())
	if d < 0 {
		d = 0
	}
	e.handle = s.facility.After(d, func() { s.fire(id, gen) })
	logger.Debug("Reminder scheduled", "habit", id, "at", at.Format(time.RFC3339))
}

func (s *Scheduler) fire(id string, gen uint64) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok || e.generation != gen || s.stopped {
		s.mu.Unlock()
		return
	}
	e.state = Fired
	s.mu.Unlock()

	h, found := s.lookup(id)
	if !found {
		s.mu.Lock()
		if cur, ok := s.entries[id]; ok && cur.generation == gen {
			delete(s.entries, id)
		}
		s.mu.Unlock()
		logger.Debug("Reminder fired for a deleted habit", "habit", id)
		return
	}

	// The lookup may reload the store, which can clear or move this reminder.
	s.mu.Lock()
	cur, ok := s.entries[id]
	current := ok && cur.generation == gen && !s.stopped
	s.mu.Unlock()
	if !current {
		logger.Debug("Reminder superseded while firing", "habit", id)
		return
	}

	delivered := false
	if auth := s.facility.QueryAuthorization(); auth == Granted {
		n := notifier.Notification{
			Title: fmt.Sprintf(constants.ReminderTitleFormat, h.Name),
			Body:  constants.ReminderBody,
		}
		if err := s.notifier.Notify(s.ctx, n); err != nil {
			logger.Warn("Failed to deliver reminder", "habit", id, "error", err)
		} else {
			delivered = true
			logger.Info("Reminder delivered", "habit", id, "name", h.Name)
		}
	} else {
		logger.Debug("Reminder suppressed", "habit", id, "authorization", auth)
	}

	s.mu.Lock()
	if cur, ok := s.entries[id]; ok && cur.generation == gen && !s.stopped {
		base := s.now()
		if cur.at.After(base) {
			base = cur.at
		}
		s.schedule(id, cur.reminder, base)
	}
	s.mu.Unlock()

	if s.onFire != nil {
		s.onFire(h, delivered)
	}
}

// Status reports the state and next fire time of a habit's reminder.
func (s *Scheduler) Status(id string) (State, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return Unscheduled, time.Time{}
	}
	return e.state, e.at
}

// Pending counts armed reminders.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.entries {
		if e.state == Pending {
			n++
		}
	}
	return n
}

// Entries lists scheduled reminders, soonest first.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for id, e := range s.entries {
		out = append(out, Entry{HabitID: id, Reminder: e.reminder, At: e.at, State: e.state})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].HabitID < out[j].HabitID
		}
		return out[i].At.Before(out[j].At)
	})
	return out
}

// Stop cancels every timer. Later Reconcile calls are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		e.handle.Cancel()
		delete(s.entries, id)
	}
	s.stopped = true
	s.cancel()
}
