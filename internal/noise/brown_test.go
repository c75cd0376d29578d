package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedWhite replays a fixed sequence of draws, cycling when exhausted.
type fixedWhite struct {
	draws []float64
	i     int
}

func (f *fixedWhite) Sample() float64 {
	v := f.draws[f.i%len(f.draws)]
	f.i++
	return v
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func TestNewBrown_Defaults(t *testing.T) {
	b := NewBrown(nil, 0, DefaultGain)

	assert.Equal(t, DefaultStep, b.Step())
	assert.Equal(t, 1.0, b.Gain())
	assert.Equal(t, 0.0, b.state)
	assert.NoError(t, b.Err())
}

func TestBrown_FrameCountAndRange(t *testing.T) {
	tests := []struct {
		name   string
		frames int
		gain   float64
	}{
		{"zero frames", 0, 1.0},
		{"single frame", 1, 1.0},
		{"odd count", 7, 0.5},
		{"typical buffer", 512, 0.25},
		{"one second", 44100, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBrown(NewUniform(42), DefaultStep, tt.gain)
			samples := make([][2]float64, tt.frames)

			n, ok := b.Stream(samples)

			assert.True(t, ok)
			assert.Equal(t, tt.frames, n)
			for i, s := range samples {
				require.GreaterOrEqual(t, s[0], -tt.gain, "frame %d", i)
				require.LessOrEqual(t, s[0], tt.gain, "frame %d", i)
				require.Equal(t, s[0], s[1], "channels differ at frame %d", i)
			}
		})
	}
}

func TestBrown_FollowsRecurrence(t *testing.T) {
	draws := []float64{1, -0.5, 0.25, -1, 0.75, 0.1, -0.3}
	const gain = 0.5
	const start = 0.3

	b := NewBrown(&fixedWhite{draws: draws}, DefaultStep, gain)
	b.state = start

	samples := make([][2]float64, 20)
	_, _ = b.Stream(samples)

	s := start
	for i := range samples {
		s = clamp(s + draws[i%len(draws)]*DefaultStep)
		assert.Equal(t, s*gain, samples[i][0], "frame %d", i)
	}
}

func TestBrown_Reproducible(t *testing.T) {
	draws := []float64{0.9, -0.2, 0.4, 0.4, -0.8}

	a := NewBrown(&fixedWhite{draws: draws}, DefaultStep, 0.7)
	b := NewBrown(&fixedWhite{draws: draws}, DefaultStep, 0.7)

	for i := range 100 {
		require.Equal(t, a.Next(), b.Next(), "sample %d", i)
	}
}

func TestBrown_ClampSaturates(t *testing.T) {
	const gain = 0.8
	b := NewBrown(&fixedWhite{draws: []float64{1}}, DefaultStep, gain)
	b.state = 1.0

	samples := make([][2]float64, 256)
	_, _ = b.Stream(samples)

	for i, s := range samples {
		require.Equal(t, gain, s[0], "frame %d", i)
	}
	assert.Equal(t, 1.0, b.state)
}

func TestBrown_ClampSaturatesNegative(t *testing.T) {
	b := NewBrown(&fixedWhite{draws: []float64{-1}}, 0.5, 1.0)

	for range 10 {
		b.Next()
	}
	assert.Equal(t, -1.0, b.state)
	assert.Equal(t, -1.0, b.Next())
}

func TestBrown_Reset(t *testing.T) {
	b := NewBrown(&fixedWhite{draws: []float64{1}}, DefaultStep, 1.0)
	for range 50 {
		b.Next()
	}
	require.NotEqual(t, 0.0, b.state)

	b.Reset()

	assert.Equal(t, 0.0, b.state)
	assert.Equal(t, DefaultStep, b.Next())
}

func TestBrown_SetGain(t *testing.T) {
	b := NewBrown(&fixedWhite{draws: []float64{1}}, DefaultStep, 1.0)
	b.SetGain(0.5)

	assert.Equal(t, 0.5, b.Gain())
	assert.Equal(t, DefaultStep*0.5, b.Next())
}

func TestBrown_StreamDoesNotAllocate(t *testing.T) {
	b := NewBrown(NewUniform(7), DefaultStep, 1.0)
	samples := make([][2]float64, 512)

	allocs := testing.AllocsPerRun(100, func() {
		_, _ = b.Stream(samples)
	})

	assert.Zero(t, allocs)
}

func TestUniform_Range(t *testing.T) {
	u := NewUniform(1)

	var sum float64
	const n = 100000
	for range n {
		v := u.Sample()
		require.GreaterOrEqual(t, v, -1.0)
		require.Less(t, v, 1.0)
		sum += v
	}

	assert.InDelta(t, 0.0, sum/n, 0.02)
}

func TestUniform_SameSeedSameSequence(t *testing.T) {
	a := NewUniform(99)
	b := NewUniform(99)

	for range 32 {
		assert.Equal(t, a.Sample(), b.Sample())
	}
}
