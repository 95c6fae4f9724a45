package constants

const (
	// Config keys
	SettingStore               = "store"
	SettingTimezone            = "timezone"
	SettingDebug               = "debug"
	SettingNotificationAuth    = "notifications.authorization"
	SettingNotificationBackend = "notifications.backend"

	// Notification backends
	NotificationBackendTray    = "tray"
	NotificationBackendConsole = "console"

	// Authorization states as persisted in the config file
	AuthorizationGranted      = "granted"
	AuthorizationDenied       = "denied"
	AuthorizationUndetermined = "undetermined"

	// Default config values
	DefaultTimezone            = "Local" // Use system local timezone by default
	DefaultNotificationBackend = NotificationBackendTray
	DefaultNotificationAuth    = AuthorizationUndetermined
)
