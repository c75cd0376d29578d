package noise

import (
	"math"
	"sync/atomic"
)

// DefaultStep is the integrator step applied to each white draw. Larger values
// give a brighter, faster-moving signal; smaller values a deeper rumble.
const DefaultStep = 0.005

// DefaultGain is the output gain used when none is configured.
const DefaultGain = 1.0

// Brown integrates white noise into brown noise:
//
//	s[i] = clamp(s[i-1] + w[i]*step, -1, 1)
//	out[i] = s[i] * gain
//
// The integrator is owned by whichever goroutine renders the stream. Only the
// gain may be changed concurrently.
type Brown struct {
	white White
	step  float64
	gain  atomic.Uint64
	state float64
}

// NewBrown creates a generator with a zeroed integrator.
func NewBrown(white White, step, gain float64) *Brown {
	if white == nil {
		white = NewTimeSeeded()
	}
	if step <= 0 {
		step = DefaultStep
	}
	b := &Brown{white: white, step: step}
	b.SetGain(gain)
	return b
}

// SetGain changes the output gain. Safe to call while the stream is rendering.
func (b *Brown) SetGain(gain float64) {
	b.gain.Store(math.Float64bits(gain))
}

// Gain returns the current output gain.
func (b *Brown) Gain() float64 {
	return math.Float64frombits(b.gain.Load())
}

// Step returns the integrator step.
func (b *Brown) Step() float64 {
	return b.step
}

// Reset zeroes the integrator. The caller must ensure no render is in flight.
func (b *Brown) Reset() {
	b.state = 0
}

// advance moves the integrator by one white draw and returns the new state.
func (b *Brown) advance() float64 {
	s := b.state + b.white.Sample()*b.step
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	b.state = s
	return s
}

// Next returns the next output sample.
func (b *Brown) Next() float64 {
	return b.advance() * b.Gain()
}

// Stream fills every frame with the next sample, identical on both channels.
// It never blocks, allocates or ends.
func (b *Brown) Stream(samples [][2]float64) (n int, ok bool) {
	gain := b.Gain()
	for i := range samples {
		v := b.advance() * gain
		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

// Err always returns nil; the signal has no failure mode.
func (b *Brown) Err() error {
	return nil
}
