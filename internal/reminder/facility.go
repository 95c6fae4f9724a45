package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/notifier"
)

// Authorization is the user's notification permission.
type Authorization int

const (
	Undetermined Authorization = iota
	Granted
	Denied
)

func (a Authorization) String() string {
	switch a {
	case Granted:
		return constants.AuthorizationGranted
	case Denied:
		return constants.AuthorizationDenied
	default:
		return constants.AuthorizationUndetermined
	}
}

// ParseAuthorization maps a persisted value back to an Authorization.
// Unknown values are treated as undetermined.
func ParseAuthorization(s string) Authorization {
	switch s {
	case constants.AuthorizationGranted:
		return Granted
	case constants.AuthorizationDenied:
		return Denied
	default:
		return Undetermined
	}
}

// Handle cancels one scheduled callback. Cancel reports whether the
// callback was stopped before it ran.
type Handle interface {
	Cancel() bool
}

// Facility is the platform service that runs delayed callbacks and owns the
// notification permission. After must not invoke fn synchronously.
type Facility interface {
	After(d time.Duration, fn func()) Handle
	QueryAuthorization() Authorization
	RequestAuthorization(ctx context.Context) (Authorization, error)
}

// AuthorizationStore persists the permission decision.
type AuthorizationStore interface {
	Authorization() string
	SetAuthorization(state string) error
}

// Refresher is implemented by stores whose permission can change on disk
// underneath a running process.
type Refresher interface {
	Refresh() error
}

// TimerFacility runs callbacks on runtime timers and keeps the permission
// in an AuthorizationStore.
type TimerFacility struct {
	mu       sync.Mutex
	store    AuthorizationStore
	notifier notifier.Notifier
}

func NewTimerFacility(store AuthorizationStore, n notifier.Notifier) *TimerFacility {
	return &TimerFacility{store: store, notifier: n}
}

type timerHandle struct {
	t *time.Timer
}

func (h timerHandle) Cancel() bool {
	return h.t.Stop()
}

func (f *TimerFacility) After(d time.Duration, fn func()) Handle {
	return timerHandle{t: time.AfterFunc(d, fn)}
}

func (f *TimerFacility) QueryAuthorization() Authorization {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh()
	return ParseAuthorization(f.store.Authorization())
}

// refresh pulls the latest persisted permission. Caller holds mu.
func (f *TimerFacility) refresh() {
	r, ok := f.store.(Refresher)
	if !ok {
		return
	}
	if err := r.Refresh(); err != nil {
		logger.Warn("Failed to re-read notification permission, using last known", "error", err)
	}
}

// RequestAuthorization decides an undetermined permission: granted when the
// notifier can deliver, denied otherwise. A decided permission is returned
// unchanged.
func (f *TimerFacility) RequestAuthorization(ctx context.Context) (Authorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.refresh()
	current := ParseAuthorization(f.store.Authorization())
	if current != Undetermined {
		return current, nil
	}
	if err := ctx.Err(); err != nil {
		return current, err
	}

	decision := Denied
	if f.notifier.Available() {
		decision = Granted
	}
	if err := f.store.SetAuthorization(decision.String()); err != nil {
		return decision, fmt.Errorf("failed to persist notification permission: %w", err)
	}
	logger.Info("Notification permission decided", "authorization", decision)
	return decision, nil
}
