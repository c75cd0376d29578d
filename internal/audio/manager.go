package audio

import (
	"log/slog"
	"sync"

	"github.com/gopxl/beep/v2"

	"github.com/jmylchreest/tim/internal/config"
)

// closer is implemented by outputs holding a device.
type closer interface {
	Close()
}

// Manager owns the output, the noise source and the completion chime.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	output  Output
	noise   *NoiseSource
	chime   *Chime
	watcher *Watcher
	config  *config.Config
}

// NewManager creates a manager with the output selected in cfg.
func NewManager(cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	buffer, err := cfg.Audio.BufferDuration()
	if err != nil {
		return nil, err
	}

	output, err := NewOutput(OutputOptions{
		Backend:    cfg.Audio.Backend,
		SampleRate: beep.SampleRate(cfg.Audio.SampleRate),
		Buffer:     buffer,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	return NewManagerWithOutput(cfg, output, logger), nil
}

// NewManagerWithOutput creates a manager rendering through output.
func NewManagerWithOutput(cfg *config.Config, output Output, logger *slog.Logger) *Manager {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		logger: logger,
		output: output,
		noise: NewNoiseSource(output, NoiseOptions{
			Gain: cfg.Noise.Gain,
			Step: cfg.Noise.Step,
		}, logger),
		chime:  NewChime(output, logger),
		config: cfg,
	}
	m.chime.SetVolume(cfg.Notification.VolumeLevel())
	m.watcher = NewWatcher(m.chime, logger)

	return m
}

// Start preloads the chime so completion does not wait on decoding, and
// watches the file for edits.
func (m *Manager) Start() {
	m.mu.RLock()
	path := m.config.Notification.Sound
	m.mu.RUnlock()

	if err := m.chime.Preload(path); err != nil {
		m.logger.Warn("failed to preload chime", "path", path, "error", err)
	}

	m.watcher.Watch(path)
	if path != "" {
		m.watcher.Start()
	}
}

// StartNoise starts the brown noise. It is a no-op when noise is disabled.
func (m *Manager) StartNoise() error {
	m.mu.RLock()
	enabled := m.config.Noise.Enabled
	m.mu.RUnlock()

	if !enabled {
		return nil
	}
	return m.noise.Start()
}

// StopNoise stops the brown noise.
func (m *Manager) StopNoise() {
	m.noise.Stop()
}

// NoiseRunning reports whether brown noise is playing.
func (m *Manager) NoiseRunning() bool {
	return m.noise.Running()
}

// Noise returns the managed noise source.
func (m *Manager) Noise() *NoiseSource {
	return m.noise
}

// PlayChime plays the configured completion sound, if any.
func (m *Manager) PlayChime() error {
	m.mu.RLock()
	path := m.config.Notification.Sound
	m.mu.RUnlock()

	return m.chime.Play(path)
}

// HasChime reports whether a completion sound is configured.
func (m *Manager) HasChime() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Notification.Sound != ""
}

// UpdateConfig applies a reloaded configuration. Gain and chime settings take
// effect immediately; output backend changes need a restart.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.mu.Lock()
	old := m.config
	m.config = cfg
	m.mu.Unlock()

	if old.Audio != cfg.Audio || old.Noise.Step != cfg.Noise.Step {
		m.logger.Warn("audio output and noise step changes apply on restart", "backend", cfg.Audio.Backend)
	}

	m.noise.SetGain(cfg.Noise.Gain)
	if !cfg.Noise.Enabled {
		m.noise.Stop()
	}

	m.chime.SetVolume(cfg.Notification.VolumeLevel())
	m.chime.ClearCache()
	m.Start()

	m.logger.Debug("audio manager config updated", "gain", cfg.Noise.Gain, "noise", cfg.Noise.Enabled)
}

// Probe opens the output with silence and releases it again.
func (m *Manager) Probe() error {
	pb, err := m.output.Activate(beep.Silence(-1))
	if err != nil {
		return err
	}
	pb.Deactivate()
	return nil
}

// Close stops all playback and releases the output.
func (m *Manager) Close() {
	m.watcher.Stop()
	m.noise.Close()
	m.chime.Close()
	if c, ok := m.output.(closer); ok {
		c.Close()
	}
	m.logger.Debug("audio manager closed")
}
