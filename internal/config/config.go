package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting used by the plantalert binary.
type Config struct {
	// Location identifies the place the forecast is fetched for.
	Location LocationConfig `yaml:"location"`
	// Thresholds holds the two temperature bands tracked by the detector.
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	// Notifications configures outbound channels and noise suppression.
	Notifications NotificationsConfig `yaml:"notifications"`
	// Timing controls the forecast horizon and the watch-mode interval.
	Timing TimingConfig `yaml:"timing"`
	// Database configures the sqlite alert store.
	Database DatabaseConfig `yaml:"database"`
	// Logging configures level and optional rotated log file.
	Logging LoggingConfig `yaml:"logging"`
}

// LocationConfig identifies the forecast location and its timezone.
type LocationConfig struct {
	// City is a human-readable label used in logs only.
	City string `yaml:"city"`
	// Latitude of the location, in decimal degrees.
	Latitude float64 `yaml:"latitude"`
	// Longitude of the location, in decimal degrees.
	Longitude float64 `yaml:"longitude"`
	// Timezone is the IANA zone name used to render local timestamps.
	Timezone string `yaml:"timezone"`
}

// ThresholdsConfig holds the two temperature bands, in degrees Celsius.
type ThresholdsConfig struct {
	// Vigilance is the upper band: plants should be watched below it.
	Vigilance float64 `yaml:"vigilance"`
	// Freeze is the lower band: frost damage is likely below it.
	Freeze float64 `yaml:"freeze"`
}

// NotificationsConfig configures the outbound notification channels.
type NotificationsConfig struct {
	// MinChangeThreshold is the minimum shortening, in hours, that still
	// warrants a notification when a cold period shrinks between runs.
	MinChangeThreshold int `yaml:"min_change_threshold"`
	// DiscordWebhook is the webhook URL for Discord delivery. Empty disables it.
	DiscordWebhook string `yaml:"discord_webhook"`
	// PCSSHHost is the user@host target for remote notify-send delivery.
	// "local" or "localhost" sends on this machine; empty disables it.
	PCSSHHost string `yaml:"pc_ssh_host"`
	// MentionRoles lists Discord role ids to mention in webhook messages.
	MentionRoles []string `yaml:"mention_roles"`
}

// TimingConfig controls how far ahead the forecast looks and how often
// watch mode re-runs the workflow.
type TimingConfig struct {
	// ForecastHours is the lookahead horizon of the hourly forecast.
	ForecastHours int `yaml:"forecast_hours"`
	// CheckInterval is the delay between runs in watch mode.
	CheckInterval time.Duration `yaml:"check_interval"`
}

// DatabaseConfig configures the sqlite alert store.
type DatabaseConfig struct {
	// Path is the sqlite database file location.
	Path string `yaml:"path"`
	// Timeout bounds individual store operations.
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig configures log verbosity and the optional log file.
type LoggingConfig struct {
	// Level is the minimum level emitted (debug, info, warn, error, fatal).
	Level string `yaml:"level"`
	// File is the rotated log file path. Empty logs to stdout only.
	File string `yaml:"file"`
	// MaxSizeMB is the log file size that triggers rotation.
	MaxSizeMB int `yaml:"max_size_mb"`
	// BackupCount is the number of rotated log files to keep.
	BackupCount int `yaml:"backup_count"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "plantalert-settings.yaml"

	// DefaultVigilanceThreshold is the vigilance band in °C.
	DefaultVigilanceThreshold = 3.0

	// DefaultFreezeThreshold is the freeze band in °C.
	DefaultFreezeThreshold = 0.0

	// DefaultMinChangeHours suppresses notifications for small shortenings.
	DefaultMinChangeHours = 6

	// DefaultForecastHours is the forecast lookahead horizon.
	DefaultForecastHours = 48

	// DefaultCheckInterval is the watch-mode run interval.
	DefaultCheckInterval = time.Hour

	// DefaultDatabasePath is the sqlite file location.
	DefaultDatabasePath = "data/alerts.db"

	// DefaultDatabaseTimeout bounds individual store operations.
	DefaultDatabaseTimeout = 5 * time.Second

	// DefaultTimezone renders timestamps for the original deployment site.
	DefaultTimezone = "Europe/Paris"

	// DefaultLogMaxSizeMB is the log file size that triggers rotation.
	DefaultLogMaxSizeMB = 10

	// DefaultLogBackupCount is the number of rotated log files to keep.
	DefaultLogBackupCount = 5

	// DefaultFilePermissions is the default permission for files the tool creates.
	DefaultFilePermissions = 0o600
)

var (
	// errThresholdOrder is returned when the freeze band sits above the vigilance band.
	errThresholdOrder = errors.New("freeze threshold must not exceed vigilance threshold")
	// errLatitudeRange is returned for latitudes outside [-90, 90].
	errLatitudeRange = errors.New("latitude must be within [-90, 90]")
	// errLongitudeRange is returned for longitudes outside [-180, 180].
	errLongitudeRange = errors.New("longitude must be within [-180, 180]")
)

// Load reads configuration from the provided path, applies defaults and
// validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a configuration pre-filled with every default value.
// The zero freeze threshold is meaningful (0 °C), so defaults are applied
// before unmarshalling rather than patched in afterwards.
func Default() *Config {
	return &Config{
		Location: LocationConfig{
			City:      "Collonges-au-Mont-d'Or",
			Latitude:  45.8225,
			Longitude: 4.8447,
			Timezone:  DefaultTimezone,
		},
		Thresholds: ThresholdsConfig{
			Vigilance: DefaultVigilanceThreshold,
			Freeze:    DefaultFreezeThreshold,
		},
		Notifications: NotificationsConfig{
			MinChangeThreshold: DefaultMinChangeHours,
		},
		Timing: TimingConfig{
			ForecastHours: DefaultForecastHours,
			CheckInterval: DefaultCheckInterval,
		},
		Database: DatabaseConfig{
			Path:    DefaultDatabasePath,
			Timeout: DefaultDatabaseTimeout,
		},
		Logging: LoggingConfig{
			Level:       "info",
			MaxSizeMB:   DefaultLogMaxSizeMB,
			BackupCount: DefaultLogBackupCount,
		},
	}
}

// Validate checks the provided settings for required fields and formatting.
func Validate(cfg *Config) error {
	if cfg.Thresholds.Freeze > cfg.Thresholds.Vigilance {
		return errThresholdOrder
	}

	if cfg.Location.Latitude < -90 || cfg.Location.Latitude > 90 {
		return errLatitudeRange
	}

	if cfg.Location.Longitude < -180 || cfg.Location.Longitude > 180 {
		return errLongitudeRange
	}

	if _, err := time.LoadLocation(cfg.Location.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	if cfg.Timing.ForecastHours <= 0 {
		cfg.Timing.ForecastHours = DefaultForecastHours
	}

	if cfg.Timing.CheckInterval <= 0 {
		cfg.Timing.CheckInterval = DefaultCheckInterval
	}

	if cfg.Notifications.MinChangeThreshold < 0 {
		cfg.Notifications.MinChangeThreshold = DefaultMinChangeHours
	}

	if cfg.Database.Timeout <= 0 {
		cfg.Database.Timeout = DefaultDatabaseTimeout
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath
	}

	if cfg.Notifications.DiscordWebhook == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(cfg.Notifications.DiscordWebhook); err != nil {
		return fmt.Errorf("invalid discord webhook URL: %w", err)
	}

	return nil
}
