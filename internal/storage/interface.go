package storage

import "github.com/julianstephens/habitual/internal/models"

// Provider is the durable store behind the habit collection.
type Provider interface {
	// Lifecycle
	Init() error
	Close() error

	// Load returns the persisted habits in creation order, or an empty
	// slice when nothing has been saved yet.
	Load() ([]models.Habit, error)
	// Save replaces the persisted collection with habits.
	Save(habits []models.Habit) error

	// Utils
	GetConfigPath() string
}
