package habits

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/streak"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits with their streaks."`
	Toggle HabitToggleCmd `cmd:"" help:"Mark or unmark a habit as done today."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and its history."`
	Remind HabitRemindCmd `cmd:"" help:"Set or clear a habit's daily reminder."`
	Show   HabitShowCmd   `cmd:"" help:"Show details and the last 7 days for a habit."`
}

// confirm asks a yes/no question on the terminal.
var confirm = func(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok).
		Run()
	return ok, err
}

type HabitAddCmd struct {
	Name   string `arg:"" help:"Habit name."`
	Emoji  string `help:"Emoji shown next to the habit." default:""`
	Color  string `help:"Accent color as #RRGGBB." default:""`
	Remind string `help:"Daily reminder time (HH:MM)." default:""`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Store()
	if err != nil {
		return err
	}

	if _, exists := store.FindByName(c.Name); exists {
		return fmt.Errorf("habit with name %q already exists", c.Name)
	}

	reminder, err := cli.ParseReminder(c.Remind)
	if err != nil {
		return err
	}

	habit, err := store.Create(c.Name, c.Emoji, c.Color, reminder)
	if err != nil {
		return err
	}

	ctx.Printf("Added habit: %s %s\n", habit.Emoji, habit.Name)
	if habit.Reminder != nil {
		ctx.Printf("  Reminder set for %s daily\n", habit.Reminder)
	}
	return nil
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Store()
	if err != nil {
		return err
	}

	all := store.List()
	if len(all) == 0 {
		ctx.Println("No habits yet. Create your first habit with 'habitual habit add <name>'.")
		return nil
	}

	today := store.Today()
	for _, h := range all {
		view := streak.Summarize(h, today)
		ctx.Printf("%s %-24s %-10s %-10s %s\n",
			h.Emoji, h.Name, streak.FormatStreak(view.Streak), cli.FormatReminder(h.Reminder), h.ID)
	}
	return nil
}

type HabitToggleCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitToggleCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Store()
	if err != nil {
		return err
	}

	h, err := store.Resolve(c.Habit)
	if err != nil {
		return err
	}
	h, err = store.ToggleToday(h.ID)
	if err != nil {
		return err
	}

	today := store.Today()
	view := streak.Summarize(h, today)
	if view.CompletedToday {
		ctx.Printf("✓ Marked %s %s done for %s (streak: %s)\n", h.Emoji, h.Name, today, streak.FormatStreak(view.Streak))
	} else {
		ctx.Printf("Unmarked %s %s for %s\n", h.Emoji, h.Name, today)
	}
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Yes   bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Store()
	if err != nil {
		return err
	}

	h, err := store.Resolve(c.Habit)
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := confirm(fmt.Sprintf("Delete %q and all of its history?", h.Name))
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			ctx.Println("Cancelled.")
			return nil
		}
	}

	if err := store.Delete(h.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted habit: %s\n", h.Name)
	return nil
}

type HabitRemindCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Time  string `arg:"" optional:"" help:"Reminder time (HH:MM). Defaults to ${default_reminder}."`
	Clear bool   `help:"Remove the reminder."`
}

func (c *HabitRemindCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Store()
	if err != nil {
		return err
	}

	h, err := store.Resolve(c.Habit)
	if err != nil {
		return err
	}

	if c.Clear {
		if c.Time != "" {
			return fmt.Errorf("cannot combine a reminder time with --clear")
		}
		if _, err := store.SetReminder(h.ID, nil); err != nil {
			return err
		}
		ctx.Printf("Cleared reminder for %s\n", h.Name)
		return nil
	}

	at := c.Time
	if at == "" {
		at = constants.DefaultReminderTime
	}
	reminder, err := cli.ParseReminder(at)
	if err != nil {
		return err
	}
	h, err = store.SetReminder(h.ID, reminder)
	if err != nil {
		return err
	}
	ctx.Printf("Reminder for %s set to %s daily\n", h.Name, h.Reminder)
	return nil
}

type HabitShowCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Store()
	if err != nil {
		return err
	}

	h, err := store.Resolve(c.Habit)
	if err != nil {
		return err
	}

	view := streak.Summarize(h, store.Today())
	ctx.Printf("%s %s\n", h.Emoji, h.Name)
	ctx.Printf("  ID:        %s\n", h.ID)
	ctx.Printf("  Color:     %s\n", h.Color)
	ctx.Printf("  Created:   %s\n", h.CreatedAt.In(store.Location()).Format(constants.DateFormat))
	ctx.Printf("  Streak:    %s\n", streak.FormatStreak(view.Streak))
	ctx.Printf("  Completed: %d day(s)\n", len(h.CompletedDates))
	ctx.Printf("  Reminder:  %s\n", cli.FormatReminder(h.Reminder))
	ctx.Println()
	ctx.Println("  " + weekLine(view.Week))
	return nil
}

// weekLine renders the 7-day strip, e.g. "M ✓  T ·  W ✓ ...".
func weekLine(week []streak.DayMark) string {
	out := ""
	for i, d := range week {
		if i > 0 {
			out += "  "
		}
		mark := "·"
		if d.Completed {
			mark = "✓"
		}
		out += d.Label + " " + mark
	}
	return out
}
