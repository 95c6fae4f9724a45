// Package config reads and writes the YAML settings file. Every key can be
// overridden from the environment with the HABITUAL_ prefix, dots replaced
// by underscores (HABITUAL_NOTIFICATIONS_BACKEND).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/utils"
)

// NotificationsConfig controls reminder delivery.
type NotificationsConfig struct {
	// Authorization is the persisted permission decision: granted, denied or undetermined.
	Authorization string `mapstructure:"authorization" yaml:"authorization"`
	// Backend selects the delivery mechanism: tray or console.
	Backend string `mapstructure:"backend" yaml:"backend"`
}

// Config is the top-level application configuration.
type Config struct {
	Store         string              `mapstructure:"store" yaml:"store"`
	Timezone      string              `mapstructure:"timezone" yaml:"timezone"`
	Debug         bool                `mapstructure:"debug" yaml:"debug"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`

	path string
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Store:    constants.DefaultStorePath,
		Timezone: constants.DefaultTimezone,
		Notifications: NotificationsConfig{
			Authorization: constants.DefaultNotificationAuth,
			Backend:       constants.DefaultNotificationBackend,
		},
	}
}

// Load reads configuration from path. A missing file yields the defaults
// (plus any environment overrides).
func Load(path string) (*Config, error) {
	path, err := utils.ExpandHome(path)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault(constants.SettingStore, def.Store)
	v.SetDefault(constants.SettingTimezone, def.Timezone)
	v.SetDefault(constants.SettingDebug, def.Debug)
	v.SetDefault(constants.SettingNotificationAuth, def.Notifications.Authorization)
	v.SetDefault(constants.SettingNotificationBackend, def.Notifications.Backend)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated values and the time zone.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store) == "" {
		return fmt.Errorf("%s cannot be empty", constants.SettingStore)
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid %s %q", constants.SettingTimezone, c.Timezone)
	}
	backends := []string{constants.NotificationBackendTray, constants.NotificationBackendConsole}
	if !slices.Contains(backends, c.Notifications.Backend) {
		return fmt.Errorf("invalid %s %q (expected one of %s)",
			constants.SettingNotificationBackend, c.Notifications.Backend, strings.Join(backends, ", "))
	}
	states := []string{constants.AuthorizationGranted, constants.AuthorizationDenied, constants.AuthorizationUndetermined}
	if !slices.Contains(states, c.Notifications.Authorization) {
		return fmt.Errorf("invalid %s %q (expected one of %s)",
			constants.SettingNotificationAuth, c.Notifications.Authorization, strings.Join(states, ", "))
	}
	return nil
}

// Path is the file the configuration was loaded from and saves to.
func (c *Config) Path() string {
	return c.path
}

// Dir is the directory holding the config file, logs and default store.
func (c *Config) Dir() string {
	return filepath.Dir(c.path)
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}

// Save writes the configuration back to its file, creating parent
// directories if needed.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file path")
	}
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set(constants.SettingStore, c.Store)
	v.Set(constants.SettingTimezone, c.Timezone)
	v.Set(constants.SettingDebug, c.Debug)
	v.Set(constants.SettingNotificationAuth, c.Notifications.Authorization)
	v.Set(constants.SettingNotificationBackend, c.Notifications.Backend)

	if err := v.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("writing config to %s: %w", c.path, err)
	}
	return nil
}

// Authorization returns the persisted notification permission.
func (c *Config) Authorization() string {
	return c.Notifications.Authorization
}

// Refresh re-reads the notification permission from the file so a decision
// saved by another process is seen. A missing file keeps the current value.
func (c *Config) Refresh() error {
	if c.path == "" {
		return nil
	}
	if _, err := os.Stat(c.path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	fresh, err := Load(c.path)
	if err != nil {
		return err
	}
	c.Notifications.Authorization = fresh.Notifications.Authorization
	return nil
}

// SetAuthorization records a permission decision and saves the file.
func (c *Config) SetAuthorization(state string) error {
	prev := c.Notifications.Authorization
	c.Notifications.Authorization = state
	if err := c.Validate(); err != nil {
		c.Notifications.Authorization = prev
		return err
	}
	return c.Save()
}

// New returns the defaults bound to path, for writing a fresh file.
func New(path string) (*Config, error) {
	path, err := utils.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	cfg.path = path
	return cfg, nil
}
