package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/julianstephens/habitual/internal/app"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/models"
)

// Context is handed to every command's Run method. The App is built on
// first use so commands that never touch storage (keyring management)
// work before a store is configured.
type Context struct {
	Config *config.Config
	Out    io.Writer

	opts []app.Option
	app  *app.App
}

func NewContext(cfg *config.Config, out io.Writer, opts ...app.Option) *Context {
	if out == nil {
		out = os.Stdout
	}
	return &Context{Config: cfg, Out: out, opts: opts}
}

// App returns the wired application, building it on the first call.
func (c *Context) App() (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := app.New(c.Config, c.Out, c.opts...)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// Store opens the habit collection.
func (c *Context) Store() (*habits.Store, error) {
	a, err := c.App()
	if err != nil {
		return nil, err
	}
	return a.Open()
}

// Close releases whatever the command opened.
func (c *Context) Close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// ParseReminder turns a CLI HH:MM argument into a reminder. Empty means none.
func ParseReminder(s string) (*models.ReminderTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	rt, err := models.ParseReminderTime(s)
	if err != nil {
		return nil, &habits.ValidationError{Field: "reminder", Reason: err.Error()}
	}
	return &rt, nil
}

// FormatReminder renders a reminder for listings.
func FormatReminder(rt *models.ReminderTime) string {
	if rt == nil {
		return "-"
	}
	return "⏰ " + rt.String()
}
