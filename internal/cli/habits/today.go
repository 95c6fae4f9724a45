package habits

import (
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/streak"
)

type TodayCmd struct{}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Store()
	if err != nil {
		return err
	}

	today := store.Today()
	all := store.List()

	ctx.Printf("%s (%s)\n", today, store.Now().Format("Monday"))
	if len(all) == 0 {
		ctx.Println("No habits yet")
		ctx.Println("Create your first habit to get started: habitual habit add <name>")
		return nil
	}

	ctx.Printf("%d/%d habits completed today\n\n", streak.CompletedToday(all, today), len(all))
	for _, h := range all {
		view := streak.Summarize(h, today)
		box := "[ ]"
		if view.CompletedToday {
			box = "[x]"
		}
		line := box + " " + h.Emoji + " " + h.Name
		if view.Streak > 0 {
			line += "  🔥 " + streak.FormatStreak(view.Streak)
		}
		if h.Reminder != nil {
			line += "  ⏰ " + h.Reminder.String()
		}
		ctx.Println(line)
	}
	return nil
}
