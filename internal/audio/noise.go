package audio

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jmylchreest/tim/internal/noise"
)

// NoiseOptions configures a NoiseSource.
type NoiseOptions struct {
	Gain  float64
	Step  float64
	White noise.White // nil uses a time-seeded uniform source
}

// NoiseSource plays brown noise through an Output. Start and Stop may be
// called repeatedly from any goroutine; the generator itself is only touched
// by the output's render goroutine while running.
type NoiseSource struct {
	mu     sync.Mutex
	logger *slog.Logger
	output Output

	gen *noise.Brown

	// Set while running
	render   *renderer
	playback Playback
}

// NewNoiseSource creates a stopped noise source.
func NewNoiseSource(output Output, opts NoiseOptions, logger *slog.Logger) *NoiseSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoiseSource{
		logger: logger,
		output: output,
		gen:    noise.NewBrown(opts.White, opts.Step, opts.Gain),
	}
}

// Start begins playback. It returns nil if already running. On failure the
// source stays stopped and the returned error is an *ActivationError.
func (n *NoiseSource) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.playback != nil {
		return nil
	}

	r := &renderer{gen: n.gen}
	r.armed.Store(true)

	pb, err := n.output.Activate(r)
	if err != nil {
		r.armed.Store(false)
		var activationErr *ActivationError
		if !errors.As(err, &activationErr) {
			err = &ActivationError{Backend: "unknown", Err: err}
		}
		n.logger.Warn("brown noise failed to start", "error", err)
		return err
	}

	n.render = r
	n.playback = pb
	n.logger.Debug("brown noise started", "sample_rate", n.output.SampleRate(), "gain", n.gen.Gain())
	return nil
}

// Stop ends playback and zeroes the integrator. It is a no-op when stopped.
func (n *NoiseSource) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.playback == nil {
		return
	}

	n.render.armed.Store(false)
	n.playback.Deactivate()
	n.gen.Reset()

	n.render = nil
	n.playback = nil
	n.logger.Debug("brown noise stopped")
}

// Running reports whether playback is active.
func (n *NoiseSource) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.playback != nil
}

// SetGain changes the output gain, taking effect on the next rendered block.
func (n *NoiseSource) SetGain(gain float64) {
	n.gen.SetGain(gain)
}

// Gain returns the output gain.
func (n *NoiseSource) Gain() float64 {
	return n.gen.Gain()
}

// Close stops playback if running.
func (n *NoiseSource) Close() {
	n.Stop()
}

// renderer is the streamer registered with the output. A disarmed renderer
// ends the stream without touching the generator.
type renderer struct {
	armed atomic.Bool
	gen   *noise.Brown
}

func (r *renderer) Stream(samples [][2]float64) (int, bool) {
	if !r.armed.Load() {
		return 0, false
	}
	return r.gen.Stream(samples)
}

func (r *renderer) Err() error {
	return nil
}
