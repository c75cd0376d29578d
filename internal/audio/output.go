package audio

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gopxl/beep/v2"
)

// Output backends.
const (
	BackendSpeaker = "speaker"
	BackendOto     = "oto"
)

// Output is a pull-based audio sink. Activated streamers are pulled from an
// audio goroutine owned by the backend.
type Output interface {
	// SampleRate returns the rate streamers are rendered at.
	SampleRate() beep.SampleRate

	// Activate starts pulling from s. On error nothing is retained.
	Activate(s beep.Streamer) (Playback, error)
}

// Playback is a single activation of an Output.
type Playback interface {
	// Deactivate stops pulling. When it returns, no Stream call on the
	// activated streamer is in flight and none will start.
	Deactivate()
}

// ActivationError reports that an output could not be started.
type ActivationError struct {
	Backend string
	Err     error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("failed to activate %s output: %v", e.Backend, e.Err)
}

func (e *ActivationError) Unwrap() error {
	return e.Err
}

// OutputOptions configures NewOutput.
type OutputOptions struct {
	Backend    string
	SampleRate beep.SampleRate
	Buffer     time.Duration
	Logger     *slog.Logger
}

// NewOutput creates the output for the named backend. Devices are not opened
// until the first activation.
func NewOutput(opts OutputOptions) (Output, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}

	switch opts.Backend {
	case "", BackendSpeaker:
		return NewSpeakerOutput(opts.SampleRate, opts.Buffer, opts.Logger), nil
	case BackendOto:
		return NewOtoOutput(opts.SampleRate, opts.Buffer, opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown audio backend: %s", opts.Backend)
	}
}

// Default output parameters.
const (
	DefaultSampleRate beep.SampleRate = 44100
	DefaultBuffer                     = 100 * time.Millisecond
)
