package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/sislog/internal/models"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Store    StoreConfig       `yaml:"store"`
	Settings SettingsConfig    `yaml:"settings"`
	Clock    ClockConfig       `yaml:"clock"`
	User     UserConfig        `yaml:"user"`
	SSE      SSEConfig         `yaml:"sse"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Settings.Validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if err := c.Clock.Validate(); err != nil {
		return fmt.Errorf("clock: %w", err)
	}
	if err := c.User.Validate(); err != nil {
		return fmt.Errorf("user: %w", err)
	}
	return c.SSE.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig holds the shared document store configuration.
//
// Several sislog processes may point at the same SQLite file; with Watch
// enabled each one picks up the others' writes.
type StoreConfig struct {
	Path          string        `yaml:"path"`
	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.WatchDebounce, validation.Min(time.Duration(0))),
	)
}

// SettingsConfig holds the location of the durable key-value file.
type SettingsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the settings configuration.
func (c *SettingsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ClockConfig holds clock engine configuration.
type ClockConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	// Timezone is an IANA name used for the wall-clock timecode. Empty
	// means the host's local zone.
	Timezone string `yaml:"timezone"`
}

// Validate validates the clock configuration.
func (c *ClockConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TickInterval, validation.Required, validation.Min(time.Millisecond), validation.Max(time.Second)),
		validation.Field(&c.Timezone, validation.By(func(any) error {
			_, err := c.Location()
			return err
		})),
	)
}

// Location resolves Timezone.
func (c *ClockConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// UserConfig identifies the operator this process logs as.
type UserConfig struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

// Validate validates the user configuration.
func (c *UserConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Role, validation.Required,
			validation.In(models.RoleAdmin, models.RoleLogger, models.RoleViewer)),
	)
}

// User returns the configured operator.
func (c *UserConfig) User() *models.User {
	return &models.User{ID: c.ID, Name: c.Name, Email: c.Email, Role: c.Role}
}

// SSEConfig holds push broker configuration.
type SSEConfig struct {
	TimecodeThrottle time.Duration `yaml:"timecode_throttle"`
}

// Validate validates the SSE configuration.
func (c *SSEConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TimecodeThrottle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Path:          "./sislog.db",
			Watch:         true,
			WatchDebounce: 100 * time.Millisecond,
		},
		Settings: SettingsConfig{
			Path: "./sislog-settings.yaml",
		},
		Clock: ClockConfig{
			TickInterval: 33 * time.Millisecond,
		},
		User: UserConfig{
			ID:   "operator",
			Name: "Operator",
			Role: models.RoleLogger,
		},
		SSE: SSEConfig{
			TimecodeThrottle: 250 * time.Millisecond,
		},
	}
}
