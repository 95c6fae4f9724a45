package system

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/storage"
)

type DoctorCmd struct{}

type check struct {
	name string
	// needsStore checks are skipped when the store cannot be loaded.
	needsStore bool
	// warnOnly failures don't fail the run.
	warnOnly bool
	run      func(ctx *cli.Context, habits []models.Habit) error
}

var checks = []check{
	{name: "Configuration", run: checkConfig},
	{name: "Clock/timezone", run: checkTimezone},
	{name: "Habit integrity", needsStore: true, run: checkHabitsIntegrity},
	{name: "Duplicate names", needsStore: true, warnOnly: true, run: checkDuplicateNames},
	{name: "OS keyring", run: checkKeyring},
	{name: "Notifications", warnOnly: true, run: checkNotifications},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	habits, err := checkStoreReachable(ctx)
	if err != nil {
		ctx.Printf("❌ Storage reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		ctx.Printf("✓ Storage reachable: OK (%d habits)\n", len(habits))
	}
	reachable := err == nil

	for _, c := range checks {
		if c.needsStore && !reachable {
			ctx.Printf("⊘ %s: SKIPPED (storage not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx, habits)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *cli.Context) ([]models.Habit, error) {
	a, err := ctx.App()
	if err != nil {
		return nil, err
	}
	habits, err := a.Provider.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", a.Provider.GetConfigPath(), err)
	}
	return habits, nil
}

func checkConfig(ctx *cli.Context, _ []models.Habit) error {
	return ctx.Config.Validate()
}

func checkTimezone(ctx *cli.Context, _ []models.Habit) error {
	loc, err := ctx.Config.Location()
	if err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("time zone %q resolved to nothing", ctx.Config.Timezone)
	}
	return nil
}

func checkHabitsIntegrity(_ *cli.Context, habits []models.Habit) error {
	seen := make(map[string]bool, len(habits))
	for i := range habits {
		h := &habits[i]
		if err := h.Validate(); err != nil {
			return fmt.Errorf("habit %q: %w", h.ID, err)
		}
		if seen[h.ID] {
			return fmt.Errorf("duplicate habit id %q", h.ID)
		}
		seen[h.ID] = true
	}
	return nil
}

func checkDuplicateNames(_ *cli.Context, habits []models.Habit) error {
	seen := make(map[string]bool, len(habits))
	var dups []string
	for _, h := range habits {
		key := strings.ToLower(strings.TrimSpace(h.Name))
		if seen[key] {
			dups = append(dups, h.Name)
		}
		seen[key] = true
	}
	if len(dups) > 0 {
		return fmt.Errorf("habits sharing a name can only be addressed by id: %s", strings.Join(dups, ", "))
	}
	return nil
}

// checkKeyring only matters when the connection string comes from the keyring.
func checkKeyring(ctx *cli.Context, _ []models.Habit) error {
	if ctx.Config.Store != string(storage.KindPostgres) {
		return nil
	}
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkNotifications(ctx *cli.Context, _ []models.Habit) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	if auth := a.Facility.QueryAuthorization(); auth != reminder.Granted {
		return fmt.Errorf("reminders are %s (run 'habitual notify enable')", auth)
	}
	if !a.Notifier.Available() {
		return fmt.Errorf("%s notifier is not reachable; reminders will be dropped", ctx.Config.Notifications.Backend)
	}
	return nil
}
