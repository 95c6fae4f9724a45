package reminders

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/reminder"
)

type NotifyCmd struct {
	Enable NotifyEnableCmd `cmd:"" help:"Ask for permission to deliver reminders."`
	Status NotifyStatusCmd `cmd:"" help:"Show the notification permission and backend."`
	Test   NotifyTestCmd   `cmd:"" help:"Send a test notification."`
}

type NotifyEnableCmd struct {
	Reset bool `help:"Forget an earlier decision and ask again."`
}

func (c *NotifyEnableCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	if c.Reset {
		if err := ctx.Config.SetAuthorization(constants.AuthorizationUndetermined); err != nil {
			return fmt.Errorf("failed to reset notification permission: %w", err)
		}
	}

	auth, err := a.Facility.RequestAuthorization(context.Background())
	if err != nil {
		return err
	}

	switch auth {
	case reminder.Granted:
		ctx.Println("✓ Reminders enabled")
	case reminder.Denied:
		ctx.Printf("❌ Reminders disabled: the %s notifier is not available\n", ctx.Config.Notifications.Backend)
		if ctx.Config.Notifications.Backend == constants.NotificationBackendTray {
			ctx.Printf("   Start %s and run 'habitual notify enable --reset'\n", constants.TrayExecutable)
		}
	default:
		ctx.Printf("Notification permission is %s\n", auth)
	}
	return nil
}

type NotifyStatusCmd struct{}

func (c *NotifyStatusCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	ctx.Printf("Permission: %s\n", a.Facility.QueryAuthorization())
	ctx.Printf("Backend:    %s\n", ctx.Config.Notifications.Backend)
	if a.Notifier.Available() {
		ctx.Println("Available:  yes")
	} else {
		ctx.Println("Available:  no")
	}
	return nil
}

type NotifyTestCmd struct {
	Message string `arg:"" optional:"" help:"Text to send." default:"Notifications are working"`
}

func (c *NotifyTestCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	n := notifier.Notification{Title: constants.AppName, Body: c.Message}
	if err := a.Notifier.Notify(context.Background(), n); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	ctx.Println("✓ Notification sent")
	return nil
}
