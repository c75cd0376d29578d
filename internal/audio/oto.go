package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep/v2"
)

// bytesPerSample is the size of one mono float32 frame.
const bytesPerSample = 4

// OtoOutput renders directly to an oto context opened as mono 32-bit float.
// oto allows one context per process, so it must not be combined with the
// speaker backend.
type OtoOutput struct {
	mu     sync.Mutex
	logger *slog.Logger

	sampleRate beep.SampleRate
	buffer     time.Duration

	ctx *oto.Context
}

// NewOtoOutput creates an oto output. The context is opened on first
// activation.
func NewOtoOutput(sampleRate beep.SampleRate, buffer time.Duration, logger *slog.Logger) *OtoOutput {
	if logger == nil {
		logger = slog.Default()
	}
	return &OtoOutput{
		logger:     logger,
		sampleRate: sampleRate,
		buffer:     buffer,
	}
}

// SampleRate returns the context sample rate.
func (o *OtoOutput) SampleRate() beep.SampleRate {
	return o.sampleRate
}

// Activate creates a player pulling from s.
func (o *OtoOutput) Activate(s beep.Streamer) (Playback, error) {
	ctx, err := o.context()
	if err != nil {
		return nil, &ActivationError{Backend: BackendOto, Err: err}
	}

	r := newStreamReader(s, o.sampleRate.N(o.buffer))
	r.player = ctx.NewPlayer(r)
	r.player.Play()
	return r, nil
}

func (o *OtoOutput) context() (*oto.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctx != nil {
		return o.ctx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(o.sampleRate),
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   o.buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open oto context: %w", err)
	}
	<-ready

	o.ctx = ctx
	o.logger.Debug("oto context ready", "sample_rate", o.sampleRate, "buffer", o.buffer)
	return ctx, nil
}

// Close suspends the context. oto contexts cannot be reopened.
func (o *OtoOutput) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctx != nil {
		if err := o.ctx.Suspend(); err != nil {
			o.logger.Debug("failed to suspend oto context", "error", err)
		}
	}
}

// player is the part of *oto.Player a streamReader drives.
type player interface {
	Play()
	Close() error
}

// streamReader adapts a beep.Streamer to the io.Reader oto pulls from,
// downmixing to mono float32 little-endian.
type streamReader struct {
	mu       sync.Mutex
	streamer beep.Streamer
	frames   [][2]float64
	closed   bool
	released bool

	player player
}

func newStreamReader(s beep.Streamer, frames int) *streamReader {
	if frames <= 0 {
		frames = 512
	}
	return &streamReader{
		streamer: s,
		frames:   make([][2]float64, frames),
	}
}

// Read fills p with whole frames. It returns io.EOF once the reader is closed
// or the streamer is drained.
func (r *streamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, io.EOF
	}

	n := len(p) / bytesPerSample
	if n == 0 {
		return 0, nil
	}
	if len(r.frames) < n {
		r.frames = make([][2]float64, n)
	}
	frames := r.frames[:n]

	got, ok := r.streamer.Stream(frames)
	for i := range got {
		v := float32((frames[i][0] + frames[i][1]) / 2)
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(v))
	}

	if !ok && got == 0 {
		r.closed = true
		return 0, io.EOF
	}
	return got * bytesPerSample, nil
}

// Deactivate waits for any in-flight Read, closes the reader and closes the
// player, which removes it from the context's mixer. Later calls are no-ops.
func (r *streamReader) Deactivate() {
	r.mu.Lock()
	r.closed = true
	p := r.player
	if r.released {
		p = nil
	}
	r.released = true
	r.mu.Unlock()

	if p != nil {
		_ = p.Close()
	}
}
