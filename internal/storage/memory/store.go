// Package memory is an in-process Provider used by tests and dry runs.
package memory

import (
	"errors"
	"sync"

	"github.com/julianstephens/habitual/internal/models"
)

// ErrInjected is returned by Save while failures are enabled.
var ErrInjected = errors.New("injected save failure")

type Store struct {
	mu        sync.Mutex
	habits    []models.Habit
	saves     int
	failSaves bool
	closed    bool
}

// NewStore returns a store preloaded with habits.
func NewStore(habits ...models.Habit) *Store {
	s := &Store{}
	s.habits = cloneAll(habits)
	return s
}

func (s *Store) Init() error { return nil }

func (s *Store) Load() ([]models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.habits), nil
}

func (s *Store) Save(habits []models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSaves {
		return ErrInjected
	}
	s.habits = cloneAll(habits)
	s.saves++
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) GetConfigPath() string {
	return "memory"
}

// FailSaves makes subsequent saves fail until called with false.
func (s *Store) FailSaves(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSaves = fail
}

// Saves is the number of successful saves.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func cloneAll(habits []models.Habit) []models.Habit {
	out := make([]models.Habit, len(habits))
	for i, h := range habits {
		out[i] = h.Clone()
	}
	return out
}
