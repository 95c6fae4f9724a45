// Package notifier delivers reminder notifications, either to the desktop
// tray companion over its local webhook or to a plain writer.
package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

// Notification is a single message shown to the user.
type Notification struct {
	Title string
	Body  string
}

// Notifier delivers notifications. Available reports whether delivery can
// currently succeed.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	Available() bool
}

// New returns the notifier for a configured backend name.
func New(backend string, w io.Writer) (Notifier, error) {
	switch backend {
	case constants.NotificationBackendTray, "":
		return NewTray(), nil
	case constants.NotificationBackendConsole:
		if w == nil {
			w = os.Stdout
		}
		return NewConsole(w), nil
	default:
		return nil, fmt.Errorf("unknown notification backend %q", backend)
	}
}

// Console writes notifications as lines of text. It is always available.
type Console struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w, now: time.Now}
}

func (c *Console) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "[%s] 🔔 %s: %s\n", c.now().Format(constants.TimeFormat), n.Title, n.Body)
	return err
}

func (c *Console) Available() bool {
	return true
}
