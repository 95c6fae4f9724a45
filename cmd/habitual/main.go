package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/cli/habits"
	"github.com/julianstephens/habitual/internal/cli/reminders"
	"github.com/julianstephens/habitual/internal/cli/system"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"${default_config}"`
	Store   string `help:"Override the configured store: a file path (.db, .json) or 'postgres'." placeholder:"TARGET"`
	Debug   bool   `help:"Log debug output to stderr."`

	Init      system.InitCmd         `cmd:"" help:"Initialize habitual storage."`
	Doctor    system.DoctorCmd       `cmd:"" help:"Run health checks and diagnostics."`
	Tui       system.TuiCmd          `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Today     habits.TodayCmd        `cmd:"" help:"Show today's habits and streaks."`
	Habit     habits.HabitCmd        `cmd:"" help:"Manage habits."`
	Reminders reminders.RemindersCmd `cmd:"" help:"Run or inspect daily reminders."`
	Notify    reminders.NotifyCmd    `cmd:"" help:"Manage notification permission."`
	Keyring   system.KeyringCmd      `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Backup    system.BackupCmd       `cmd:"" help:"Back up or restore a file-based habit store."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily habit tracker with streaks and reminders"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":          constants.Version,
			"default_config":   constants.DefaultConfigPath,
			"default_reminder": constants.DefaultReminderTime,
		},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.Store != "" {
		cfg.Store = CLI.Store
	}
	if CLI.Debug {
		cfg.Debug = true
	}

	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: cfg.Dir(),
		Stderr:    ctx.Command() == "reminders run",
	}); err != nil {
		errors.Fatal(err)
	}
	logger.Debug("Starting", "command", ctx.Command(), "store", cfg.Store)

	appCtx := cli.NewContext(cfg, os.Stdout)
	err = ctx.Run(appCtx)
	if closeErr := appCtx.Close(); err == nil {
		err = closeErr
	}
	errors.Fatal(err)
}
