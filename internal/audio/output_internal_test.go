package audio

import (
	"encoding/binary"
	"io"
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStreamer emits a fixed stereo frame and counts calls.
type countingStreamer struct {
	left, right float64
	remaining   int // frames left; negative = infinite
	calls       int
}

func (c *countingStreamer) Stream(samples [][2]float64) (int, bool) {
	c.calls++
	n := len(samples)
	if c.remaining >= 0 {
		if c.remaining == 0 {
			return 0, false
		}
		n = min(n, c.remaining)
		c.remaining -= n
	}
	for i := range n {
		samples[i] = [2]float64{c.left, c.right}
	}
	return n, true
}

func (c *countingStreamer) Err() error { return nil }

func decodeFloats(t *testing.T, p []byte) []float32 {
	t.Helper()
	require.Zero(t, len(p)%bytesPerSample)
	out := make([]float32, len(p)/bytesPerSample)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*bytesPerSample:]))
	}
	return out
}

func TestStreamReader_EncodesMonoFloat32(t *testing.T) {
	s := &countingStreamer{left: 0.25, right: 0.75, remaining: -1}
	r := newStreamReader(s, 8)

	p := make([]byte, 16*bytesPerSample)
	n, err := r.Read(p)

	require.NoError(t, err)
	assert.Equal(t, len(p), n)
	for _, v := range decodeFloats(t, p) {
		assert.Equal(t, float32(0.5), v)
	}
}

func TestStreamReader_PartialFrameBytes(t *testing.T) {
	s := &countingStreamer{left: 1, right: 1, remaining: -1}
	r := newStreamReader(s, 8)

	n, err := r.Read(make([]byte, 3))

	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, s.calls)
}

func TestStreamReader_EOFWhenDrained(t *testing.T) {
	s := &countingStreamer{left: 0.1, right: 0.1, remaining: 3}
	r := newStreamReader(s, 8)

	p := make([]byte, 8*bytesPerSample)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 3*bytesPerSample, n)

	n, err = r.Read(p)
	assert.Equal(t, io.EOF, err)
	assert.Zero(t, n)
}

func TestStreamReader_DeactivateStopsPulling(t *testing.T) {
	s := &countingStreamer{left: 0.1, right: 0.1, remaining: -1}
	r := newStreamReader(s, 8)

	_, err := r.Read(make([]byte, 32))
	require.NoError(t, err)
	require.Equal(t, 1, s.calls)

	r.Deactivate()

	n, err := r.Read(make([]byte, 32))
	assert.Equal(t, io.EOF, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, s.calls)
}

type fakePlayer struct {
	plays, closes int
}

func (p *fakePlayer) Play()        { p.plays++ }
func (p *fakePlayer) Close() error { p.closes++; return nil }

func TestStreamReader_DeactivateClosesPlayerOnce(t *testing.T) {
	s := &countingStreamer{left: 0.1, right: 0.1, remaining: -1}
	r := newStreamReader(s, 8)
	p := &fakePlayer{}
	r.player = p
	r.player.Play()

	r.Deactivate()
	r.Deactivate()

	assert.Equal(t, 1, p.plays)
	assert.Equal(t, 1, p.closes)
	n, err := r.Read(make([]byte, 32))
	assert.Equal(t, io.EOF, err)
	assert.Zero(t, n)
}

// stubSpeakerInit replaces the device init and resets the shared state.
func stubSpeakerInit(t *testing.T, err error) *int {
	t.Helper()
	calls := 0
	orig := initSpeaker
	initSpeaker = func(beep.SampleRate, int) error {
		calls++
		return err
	}
	speakerState.initialized = false
	t.Cleanup(func() {
		initSpeaker = orig
		speakerState.initialized = false
	})
	return &calls
}

func TestSpeakerOutput_InitializesOncePerProcess(t *testing.T) {
	calls := stubSpeakerInit(t, nil)

	first := NewSpeakerOutput(44100, 100*time.Millisecond, nil)
	pb, err := first.Activate(&countingStreamer{remaining: -1})
	require.NoError(t, err)
	pb.Deactivate()
	first.Close()

	_, err = first.Activate(&countingStreamer{remaining: -1})
	require.NoError(t, err)

	second := NewSpeakerOutput(44100, 100*time.Millisecond, nil)
	_, err = second.Activate(&countingStreamer{remaining: -1})
	require.NoError(t, err)
	second.Close()

	assert.Equal(t, 1, *calls)
}

func TestSpeakerOutput_RetriesFailedInit(t *testing.T) {
	calls := stubSpeakerInit(t, assert.AnError)

	out := NewSpeakerOutput(44100, 100*time.Millisecond, nil)
	_, err := out.Activate(&countingStreamer{remaining: -1})
	var activationErr *ActivationError
	require.ErrorAs(t, err, &activationErr)
	assert.ErrorIs(t, err, assert.AnError)

	initSpeaker = func(beep.SampleRate, int) error {
		*calls++
		return nil
	}
	_, err = out.Activate(&countingStreamer{remaining: -1})
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
	out.Close()
}

func TestGate_DeactivateCutsOffStreamer(t *testing.T) {
	s := &countingStreamer{left: 0.3, right: 0.3, remaining: -1}
	g := &gate{streamer: s, open: true}

	samples := make([][2]float64, 16)
	n, ok := g.Stream(samples)
	require.True(t, ok)
	require.Equal(t, 16, n)

	g.Deactivate()

	n, ok = g.Stream(samples)
	assert.False(t, ok)
	assert.Zero(t, n)
	assert.Equal(t, 1, s.calls)
	assert.NoError(t, g.Err())
}

func TestNewOutput_Backends(t *testing.T) {
	tests := []struct {
		backend string
		want    any
		wantErr bool
	}{
		{"", &SpeakerOutput{}, false},
		{BackendSpeaker, &SpeakerOutput{}, false},
		{BackendOto, &OtoOutput{}, false},
		{"alsa", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			out, err := NewOutput(OutputOptions{Backend: tt.backend})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, out)
			assert.Equal(t, DefaultSampleRate, out.SampleRate())
		})
	}
}

func TestActivationError(t *testing.T) {
	cause := io.ErrClosedPipe
	err := &ActivationError{Backend: BackendOto, Err: cause}

	assert.Contains(t, err.Error(), "oto")
	assert.Contains(t, err.Error(), cause.Error())
	assert.ErrorIs(t, err, cause)
}

func TestVolumeToExponent(t *testing.T) {
	assert.Equal(t, 0.0, volumeToExponent(1))
	assert.Equal(t, -1.0, volumeToExponent(0.5))
	assert.Equal(t, -2.0, volumeToExponent(0.25))
	assert.Equal(t, -10.0, volumeToExponent(0))
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	assert.Equal(t, "/home/tester/sounds/bell.wav", expandPath("~/sounds/bell.wav"))
	assert.Equal(t, "/abs/bell.wav", expandPath("/abs/bell.wav"))
	assert.Equal(t, "", expandPath(""))
}

var _ beep.Streamer = (*gate)(nil)
