package constants

import "time"

const (
	AppName            = "habitual"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/habitual"
	DefaultConfigPath  = "~/.config/habitual/config.yaml"
	DefaultStorePath   = "~/.config/habitual/habitual.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Environment
	EnvPrefix       = "HABITUAL"
	EnvDBConnection = "HABITUAL_DB_CONNECTION"

	// Habit defaults
	DefaultEmoji        = "✨"
	DefaultColor        = "#0ea5e9"
	DefaultReminderTime = "09:00"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "habitual-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.habitual"
	TrayExecutable         = "habitual-tray"
	TraySecretHeader       = "X-Habitual-Secret"
	ReminderTitleFormat    = "Time for: %s"
	ReminderBody           = "Don't forget to complete your habit today!"

	// Week view
	WeekLength = 7
)

// Emojis offered by the add-habit form.
var Emojis = []string{"✨", "💪", "📚", "🏃", "🧘", "💧", "🎯", "✍️", "🌱", "🎨", "🎵", "🍎"}

// Colors offered by the add-habit form.
var Colors = []string{"#0ea5e9", "#8b5cf6", "#ec4899", "#f59e0b", "#10b981", "#ef4444", "#06b6d4", "#6366f1"}
