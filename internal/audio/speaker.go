package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// beep's speaker is process-wide and refuses a second Init, so every
// SpeakerOutput shares one initialization.
var speakerState struct {
	mu          sync.Mutex
	initialized bool
	rate        beep.SampleRate
}

// initSpeaker is swapped out in tests that run without a sound device.
var initSpeaker = speaker.Init

// SpeakerOutput renders through beep's global speaker mixer.
type SpeakerOutput struct {
	logger *slog.Logger

	sampleRate beep.SampleRate
	buffer     time.Duration
}

// NewSpeakerOutput creates a speaker output. The speaker is initialized on
// first activation.
func NewSpeakerOutput(sampleRate beep.SampleRate, buffer time.Duration, logger *slog.Logger) *SpeakerOutput {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpeakerOutput{
		logger:     logger,
		sampleRate: sampleRate,
		buffer:     buffer,
	}
}

// SampleRate returns the speaker sample rate.
func (o *SpeakerOutput) SampleRate() beep.SampleRate {
	return o.sampleRate
}

// Activate adds s to the speaker mixer behind a gate.
func (o *SpeakerOutput) Activate(s beep.Streamer) (Playback, error) {
	if err := o.ensureInitialized(); err != nil {
		return nil, &ActivationError{Backend: BackendSpeaker, Err: err}
	}

	g := &gate{streamer: s, open: true}
	speaker.Play(g)
	return g, nil
}

// ensureInitialized initializes the speaker once per process. A failed
// attempt is retried on the next activation.
func (o *SpeakerOutput) ensureInitialized() error {
	speakerState.mu.Lock()
	defer speakerState.mu.Unlock()

	if speakerState.initialized {
		if speakerState.rate != o.sampleRate {
			o.logger.Warn("speaker already running at a different sample rate",
				"running", speakerState.rate, "requested", o.sampleRate)
		}
		return nil
	}

	bufferSize := o.sampleRate.N(o.buffer)
	if err := initSpeaker(o.sampleRate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	speakerState.initialized = true
	speakerState.rate = o.sampleRate
	o.logger.Debug("speaker initialized", "sample_rate", o.sampleRate, "buffer_size", bufferSize)
	return nil
}

// Close stops all playback. The device stays open because the speaker cannot
// be initialized again within the process.
func (o *SpeakerOutput) Close() {
	speakerState.mu.Lock()
	defer speakerState.mu.Unlock()

	if speakerState.initialized {
		speaker.Clear()
	}
	o.logger.Debug("speaker cleared")
}

// gate cuts a streamer off from the mixer. open is guarded by the speaker
// lock, which the mixer holds for every pull.
type gate struct {
	streamer beep.Streamer
	open     bool
}

func (g *gate) Stream(samples [][2]float64) (int, bool) {
	if !g.open {
		return 0, false
	}
	return g.streamer.Stream(samples)
}

func (g *gate) Err() error {
	if !g.open {
		return nil
	}
	return g.streamer.Err()
}

// Deactivate closes the gate. The mixer drops it on its next pass.
func (g *gate) Deactivate() {
	speaker.Lock()
	g.open = false
	speaker.Unlock()
}
