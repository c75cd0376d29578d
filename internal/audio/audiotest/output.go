// Package audiotest provides an instrumented audio.Output for tests that
// cannot open a sound device.
package audiotest

import (
	"math"
	"runtime"
	"sync"

	"github.com/gopxl/beep/v2"

	"github.com/jmylchreest/tim/internal/audio"
)

// Output records activations and renders either on demand through Pull or
// continuously from a background goroutine when Pump is set.
type Output struct {
	Rate beep.SampleRate

	// Err, when set, fails every activation
	Err error

	// Pump starts a goroutine per activation that pulls Frames at a time
	Pump   bool
	Frames int

	mu            sync.Mutex
	attempts      int
	activations   int
	deactivations int
	playbacks     []*Playback
}

// New creates a fake output at the given rate.
func New(rate beep.SampleRate) *Output {
	return &Output{Rate: rate, Frames: 256}
}

// SampleRate returns the configured rate.
func (o *Output) SampleRate() beep.SampleRate {
	return o.Rate
}

// Activate registers s. It fails with an *audio.ActivationError if Err is set.
func (o *Output) Activate(s beep.Streamer) (audio.Playback, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.attempts++
	if o.Err != nil {
		return nil, &audio.ActivationError{Backend: "fake", Err: o.Err}
	}

	o.activations++
	p := &Playback{output: o, streamer: s, stop: make(chan struct{})}
	o.playbacks = append(o.playbacks, p)

	if o.Pump {
		frames := o.Frames
		if frames <= 0 {
			frames = 256
		}
		p.wg.Add(1)
		go p.pump(frames)
	}
	return p, nil
}

// Attempts returns the number of Activate calls.
func (o *Output) Attempts() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attempts
}

// Activations returns the number of successful activations.
func (o *Output) Activations() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activations
}

// Deactivations returns the number of Deactivate calls, repeats included.
func (o *Output) Deactivations() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.deactivations
}

// Last returns the most recent playback, or nil.
func (o *Output) Last() *Playback {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.playbacks) == 0 {
		return nil
	}
	return o.playbacks[len(o.playbacks)-1]
}

// Playback is a fake activation.
type Playback struct {
	output   *Output
	streamer beep.Streamer

	mu     sync.Mutex
	done   bool
	ended  bool
	frames int
	peak   float64

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Pull renders n frames synchronously. It returns nil, false once the
// playback is deactivated or the streamer has ended.
func (p *Playback) Pull(n int) ([][2]float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done || p.ended {
		return nil, false
	}

	samples := make([][2]float64, n)
	got, ok := p.streamer.Stream(samples)
	p.record(samples[:got], ok)
	return samples[:got], ok
}

func (p *Playback) pump(frames int) {
	defer p.wg.Done()

	samples := make([][2]float64, frames)
	for {
		select {
		case <-p.stop:
			return
		default:
		}

		p.mu.Lock()
		if !p.done && !p.ended {
			got, ok := p.streamer.Stream(samples)
			p.record(samples[:got], ok)
		}
		p.mu.Unlock()
		runtime.Gosched()
	}
}

// record must be called with p.mu held.
func (p *Playback) record(samples [][2]float64, ok bool) {
	p.frames += len(samples)
	for _, s := range samples {
		p.peak = math.Max(p.peak, math.Max(math.Abs(s[0]), math.Abs(s[1])))
	}
	if !ok {
		p.ended = true
	}
}

// Deactivate stops rendering. In-flight pulls complete before it returns.
func (p *Playback) Deactivate() {
	p.mu.Lock()
	p.done = true
	p.mu.Unlock()

	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()

	p.output.mu.Lock()
	p.output.deactivations++
	p.output.mu.Unlock()
}

// Deactivated reports whether Deactivate was called.
func (p *Playback) Deactivated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Ended reports whether the streamer signalled the end of its stream.
func (p *Playback) Ended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ended
}

// Frames returns the number of frames rendered so far.
func (p *Playback) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// Peak returns the largest absolute sample rendered so far.
func (p *Playback) Peak() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}
