package notifier

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

func TestNewSelectsBackend(t *testing.T) {
	n, err := New(constants.NotificationBackendTray, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := n.(*Tray); !ok {
		t.Errorf("expected *Tray, got %T", n)
	}

	n, err = New(constants.NotificationBackendConsole, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := n.(*Console); !ok {
		t.Errorf("expected *Console, got %T", n)
	}

	if _, err := New("pager", nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestConsoleNotify(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.now = func() time.Time { return time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC) }

	if !c.Available() {
		t.Error("console should always be available")
	}
	if err := c.Notify(context.Background(), Notification{Title: "Time for: Read", Body: "Go"}); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "[09:00] 🔔 Time for: Read: Go\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Notify(ctx, Notification{}); err == nil {
		t.Error("expected error for cancelled context")
	}
}
