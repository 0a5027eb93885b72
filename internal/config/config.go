// Package config handles configuration loading, validation and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Interval bounds for the monitoring loop, in minutes. Configuration
// outside this range is rejected before the scheduler adopts it.
const (
	MinIntervalMinutes = 1
	MaxIntervalMinutes = 10
)

// ErrIntervalOutOfRange is returned when monitoring.interval_minutes
// falls outside [MinIntervalMinutes, MaxIntervalMinutes].
var ErrIntervalOutOfRange = errors.New("monitoring interval out of range")

// Config holds all configuration for the daemon.
type Config struct {
	Monitoring   MonitoringConfig   `yaml:"monitoring"`
	AI           AIConfig           `yaml:"ai"`
	Intervention InterventionConfig `yaml:"intervention"`
	Timer        TimerConfig        `yaml:"timer"`

	DataDir string `yaml:"data_dir"`
}

// MonitoringConfig controls the scheduler. Replaced wholesale on
// update, never merged field by field; the loop reads a snapshot at
// the start of every tick so a change takes effect on the next tick.
type MonitoringConfig struct {
	Enabled         bool     `yaml:"enabled"`
	IntervalMinutes int      `yaml:"interval_minutes"` // 1-10
	Whitelist       []string `yaml:"whitelist"`        // apps that usually mean focus
	Blacklist       []string `yaml:"blacklist"`        // apps that usually mean distraction
}

// AIConfig selects the classification backend. APIType picks the wire
// protocol; the detection model classifies samples and the report
// model is reserved for summaries.
type AIConfig struct {
	APIType        string `yaml:"api_type"` // "openai" | "ollama" | "claude"
	APIURL         string `yaml:"api_url"`
	APIKey         string `yaml:"api_key"`
	DetectionModel string `yaml:"detection_model"`
	ReportModel    string `yaml:"report_model"`
}

// InterventionConfig gates the distraction interventions.
type InterventionConfig struct {
	Enabled                bool   `yaml:"enabled"`
	LightNotification      bool   `yaml:"light_notification"`
	SeverePopup            bool   `yaml:"severe_popup"`
	EncouragementEnabled   bool   `yaml:"encouragement_enabled"`
	CooldownMinutes        int    `yaml:"cooldown_minutes"`
	NotificationSound      bool   `yaml:"notification_sound"`
	PopupDurationSeconds   int    `yaml:"popup_duration_seconds"`
	EncouragementFrequency string `yaml:"encouragement_frequency"` // "low" | "medium" | "high"
}

// TimerConfig holds the default session lengths, in minutes.
type TimerConfig struct {
	FocusMinutes      int `yaml:"focus_minutes"`
	ShortBreakMinutes int `yaml:"short_break_minutes"`
	LongBreakMinutes  int `yaml:"long_break_minutes"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/tmp"
	}

	return &Config{
		Monitoring: MonitoringConfig{
			Enabled:         false,
			IntervalMinutes: 3,
		},
		AI: AIConfig{
			APIType:        "openai",
			APIURL:         "https://api.openai.com/v1",
			APIKey:         os.Getenv("MYFOCUS_API_KEY"),
			DetectionModel: "gpt-4o-mini",
			ReportModel:    "gpt-4o",
		},
		Intervention: InterventionConfig{
			Enabled:                true,
			LightNotification:      true,
			SeverePopup:            true,
			EncouragementEnabled:   true,
			CooldownMinutes:        5,
			NotificationSound:      true,
			PopupDurationSeconds:   10,
			EncouragementFrequency: "medium",
		},
		Timer: TimerConfig{
			FocusMinutes:      25,
			ShortBreakMinutes: 5,
			LongBreakMinutes:  15,
		},
		DataDir: filepath.Join(home, ".local", "share", "myfocus"),
	}
}

// DefaultPath returns the config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/tmp"
	}
	return filepath.Join(home, ".config", "myfocus", "config.yaml")
}

// Validate checks the invariants configuration must hold before the
// scheduler may adopt it.
func (c *Config) Validate() error {
	return c.Monitoring.Validate()
}

// Validate rejects an interval outside [1,10] minutes.
func (m *MonitoringConfig) Validate() error {
	if m.IntervalMinutes < MinIntervalMinutes || m.IntervalMinutes > MaxIntervalMinutes {
		return fmt.Errorf("%w: %d minutes (want %d-%d)",
			ErrIntervalOutOfRange, m.IntervalMinutes, MinIntervalMinutes, MaxIntervalMinutes)
	}
	return nil
}

// Load reads the config file at path, falling back to defaults when
// it does not exist. The loaded config is validated before it is
// returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.DataDir = expandTilde(cfg.DataDir)
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("MYFOCUS_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0700)
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
