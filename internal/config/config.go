// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// AppName names the config and data directories.
const AppName = "tim"

// Default configuration values.
const (
	DefaultTimer       = "10m"
	DefaultAdjustStep  = "5s"
	DefaultNoiseGain   = 1.0
	DefaultNoiseStep   = 0.005
	DefaultBackend     = "speaker"
	DefaultSampleRate  = 44100
	DefaultBuffer      = "100ms"
	DefaultSummary     = "Timer Complete"
	DefaultBody        = "Your timer has finished!"
	DefaultUrgency     = "critical"
	DefaultTimeout     = "0s"
	DefaultVolume      = 100
	DefaultHistoryKeep = 500
)

// ErrInvalid is wrapped by all validation errors.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the tim configuration.
type Config struct {
	Timer        TimerConfig        `toml:"timer"`
	Noise        NoiseConfig        `toml:"noise"`
	Audio        AudioConfig        `toml:"audio"`
	Notification NotificationConfig `toml:"notification"`
	History      HistoryConfig      `toml:"history"`
}

// TimerConfig holds countdown defaults.
type TimerConfig struct {
	Default     string `toml:"default"`      // Initial countdown length
	Step        string `toml:"step"`         // Up/down adjustment
	ShowSeconds bool   `toml:"show_seconds"` // Show the seconds column
}

// NoiseConfig holds brown-noise settings.
type NoiseConfig struct {
	Enabled bool    `toml:"enabled"`
	Gain    float64 `toml:"gain"` // 0.0 to 1.0
	Step    float64 `toml:"step"` // Integrator step per sample
}

// AudioConfig selects and tunes the audio output.
type AudioConfig struct {
	Backend    string `toml:"backend"` // speaker, oto
	SampleRate int    `toml:"sample_rate"`
	Buffer     string `toml:"buffer"`
}

// NotificationConfig holds completion notification settings.
type NotificationConfig struct {
	Enabled bool   `toml:"enabled"`
	Summary string `toml:"summary"`
	Body    string `toml:"body"`
	Urgency string `toml:"urgency"` // low, normal, critical
	Timeout string `toml:"timeout"` // 0 = never expire
	Sound   string `toml:"sound"`   // Chime file (wav, ogg, mp3); empty = none
	Volume  int    `toml:"volume"`  // 0-100
}

// HistoryConfig holds session history settings.
type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
	Keep    int  `toml:"keep"` // Max sessions kept (0 = unlimited)
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Timer: TimerConfig{
			Default:     DefaultTimer,
			Step:        DefaultAdjustStep,
			ShowSeconds: true,
		},
		Noise: NoiseConfig{
			Enabled: true,
			Gain:    DefaultNoiseGain,
			Step:    DefaultNoiseStep,
		},
		Audio: AudioConfig{
			Backend:    DefaultBackend,
			SampleRate: DefaultSampleRate,
			Buffer:     DefaultBuffer,
		},
		Notification: NotificationConfig{
			Enabled: true,
			Summary: DefaultSummary,
			Body:    DefaultBody,
			Urgency: DefaultUrgency,
			Timeout: DefaultTimeout,
			Volume:  DefaultVolume,
		},
		History: HistoryConfig{
			Enabled: true,
			Keep:    DefaultHistoryKeep,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppName, "config.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, AppName)
}

// StatePath returns the path to the state directory.
// Uses XDG_STATE_HOME if set, otherwise ~/.local/state.
func StatePath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, AppName)
}

// HistoryPath returns the path to the session history JSONL file.
func HistoryPath() string {
	return filepath.Join(DataPath(), "history.jsonl")
}

// LogPath returns the path to the log file used while the TUI is running.
func LogPath() string {
	return filepath.Join(StatePath(), "tim.log")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks value ranges and that durations parse.
func (c *Config) Validate() error {
	if _, err := c.Timer.DefaultDuration(); err != nil {
		return fmt.Errorf("%w: timer.default: %v", ErrInvalid, err)
	}
	if d, err := c.Timer.StepDuration(); err != nil || d <= 0 {
		return fmt.Errorf("%w: timer.step must be a positive duration", ErrInvalid)
	}
	if c.Noise.Gain < 0 || c.Noise.Gain > 1 {
		return fmt.Errorf("%w: noise.gain must be between 0 and 1", ErrInvalid)
	}
	if c.Noise.Step <= 0 || c.Noise.Step > 1 {
		return fmt.Errorf("%w: noise.step must be in (0, 1]", ErrInvalid)
	}
	switch c.Audio.Backend {
	case "speaker", "oto":
	default:
		return fmt.Errorf("%w: audio.backend must be speaker or oto, got %q", ErrInvalid, c.Audio.Backend)
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return fmt.Errorf("%w: audio.sample_rate out of range", ErrInvalid)
	}
	if d, err := c.Audio.BufferDuration(); err != nil || d <= 0 {
		return fmt.Errorf("%w: audio.buffer must be a positive duration", ErrInvalid)
	}
	if _, ok := urgencyLevels[c.Notification.Urgency]; !ok {
		return fmt.Errorf("%w: notification.urgency must be low, normal or critical", ErrInvalid)
	}
	if _, err := c.Notification.TimeoutDuration(); err != nil {
		return fmt.Errorf("%w: notification.timeout: %v", ErrInvalid, err)
	}
	if c.Notification.Volume < 0 || c.Notification.Volume > 100 {
		return fmt.Errorf("%w: notification.volume must be between 0 and 100", ErrInvalid)
	}
	if c.History.Keep < 0 {
		return fmt.Errorf("%w: history.keep must not be negative", ErrInvalid)
	}
	return nil
}

// DefaultDuration returns the initial countdown length.
func (t TimerConfig) DefaultDuration() (time.Duration, error) {
	return parseDuration(t.Default)
}

// StepDuration returns the up/down adjustment.
func (t TimerConfig) StepDuration() (time.Duration, error) {
	return parseDuration(t.Step)
}

// BufferDuration returns the output buffer length.
func (a AudioConfig) BufferDuration() (time.Duration, error) {
	return parseDuration(a.Buffer)
}

// TimeoutDuration returns the notification expiry.
func (n NotificationConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration(n.Timeout)
}

// urgencyLevels maps urgency names to freedesktop urgency bytes.
var urgencyLevels = map[string]byte{
	"low":      0,
	"normal":   1,
	"critical": 2,
}

// UrgencyLevel returns the freedesktop urgency byte, defaulting to normal.
func (n NotificationConfig) UrgencyLevel() byte {
	if level, ok := urgencyLevels[n.Urgency]; ok {
		return level
	}
	return 1
}

// VolumeLevel returns the chime volume as 0.0 to 1.0.
func (n NotificationConfig) VolumeLevel() float64 {
	return float64(n.Volume) / 100.0
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	path := DataPath()
	if path == "" {
		return errors.New("unable to determine data directory")
	}
	return os.MkdirAll(path, 0755)
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	path := StatePath()
	if path == "" {
		return errors.New("unable to determine state directory")
	}
	return os.MkdirAll(path, 0755)
}
