package system

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/postgres"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing habits before initialization."`
	Source string `help:"Source store path or connection string to copy habits from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if err := c.writeConfig(ctx); err != nil {
		return err
	}

	a, err := ctx.App()
	if err != nil {
		return err
	}
	target := a.Provider.GetConfigPath()
	fileBacked := storage.KindOf(ctx.Config.Store) != storage.KindPostgres && ctx.Config.Store != string(storage.KindPostgres)

	if c.Source != "" && fileBacked && samePath(c.Source, target) {
		return fmt.Errorf("source and destination are the same: %s", target)
	}

	if c.Force && fileBacked {
		if _, err := os.Stat(target); err == nil {
			// Close first so the file isn't held open while it's removed.
			if err := a.Provider.Close(); err != nil {
				return fmt.Errorf("failed to close existing store: %w", err)
			}
			if err := os.Remove(target); err != nil {
				return fmt.Errorf("failed to delete existing store: %w", err)
			}
			ctx.Printf("Deleted existing store at: %s\n", target)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing store: %w", err)
		}
	}

	if err := a.Init(); err != nil {
		return err
	}
	if c.Force && !fileBacked {
		if err := a.Provider.Save([]models.Habit{}); err != nil {
			return fmt.Errorf("failed to reset existing habits: %w", err)
		}
		ctx.Println("Cleared existing habits")
	}
	ctx.Printf("Initialized habitual storage at: %s\n", target)

	if c.Source != "" {
		ctx.Printf("Copying habits from: %s\n", c.Source)
		n, err := copyHabits(a.Provider, c.Source)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Printf("  Migrated %d habits\n", n)
		ctx.Println("Migration completed successfully!")
	}
	return nil
}

// writeConfig creates the config file on first run so later settings
// (notification permission) have somewhere to live.
func (c *InitCmd) writeConfig(ctx *cli.Context) error {
	path := ctx.Config.Path()
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to access config file: %w", err)
	}
	if err := ctx.Config.Save(); err != nil {
		return err
	}
	ctx.Printf("Wrote default configuration to: %s\n", path)
	return nil
}

func copyHabits(dst storage.Provider, source string) (int, error) {
	if storage.IsPostgresTarget(source) {
		if ok, err := postgres.ValidateConnString(source); !ok {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return 0, fmt.Errorf("PostgreSQL source connection string contains embedded credentials. Use environment variables or .pgpass instead")
			}
			return 0, err
		}
	}

	src, err := storage.Open(source)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	habits, err := src.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load source store: %w", err)
	}
	for i := range habits {
		if err := habits[i].Validate(); err != nil {
			return 0, fmt.Errorf("source habit %q: %w", habits[i].ID, err)
		}
	}
	if err := dst.Save(habits); err != nil {
		return 0, fmt.Errorf("failed to save habits to destination: %w", err)
	}
	return len(habits), nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
