package audio_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tim/internal/audio"
	"github.com/jmylchreest/tim/internal/audio/audiotest"
	"github.com/jmylchreest/tim/internal/config"
)

// writeChime writes a short constant-level mono WAV file.
func writeChime(t *testing.T, dir string, rate beep.SampleRate, frames int) string {
	t.Helper()

	path := filepath.Join(dir, "chime.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	tone := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{0.5, 0.5}
		}
		return len(samples), true
	})

	format := beep.Format{SampleRate: rate, NumChannels: 1, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Take(frames, tone), format))
	return path
}

// drain pulls until the playback ends, failing if it never does.
func drain(t *testing.T, pb *audiotest.Playback) {
	t.Helper()
	for range 1000 {
		if _, ok := pb.Pull(1024); !ok {
			return
		}
	}
	t.Fatal("playback never ended")
}

func TestManager_StartStopNoise(t *testing.T) {
	out := audiotest.New(44100)
	m := audio.NewManagerWithOutput(config.DefaultConfig(), out, nil)
	defer m.Close()

	require.NoError(t, m.StartNoise())
	assert.True(t, m.NoiseRunning())

	m.StopNoise()
	assert.False(t, m.NoiseRunning())
	assert.Equal(t, 1, out.Deactivations())
}

func TestManager_NoiseDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Noise.Enabled = false
	out := audiotest.New(44100)
	m := audio.NewManagerWithOutput(cfg, out, nil)
	defer m.Close()

	require.NoError(t, m.StartNoise())

	assert.False(t, m.NoiseRunning())
	assert.Zero(t, out.Attempts())
}

func TestManager_UpdateConfigDisablingNoiseStopsIt(t *testing.T) {
	out := audiotest.New(44100)
	m := audio.NewManagerWithOutput(config.DefaultConfig(), out, nil)
	defer m.Close()
	require.NoError(t, m.StartNoise())

	cfg := config.DefaultConfig()
	cfg.Noise.Enabled = false
	cfg.Noise.Gain = 0.2
	m.UpdateConfig(cfg)

	assert.False(t, m.NoiseRunning())
	assert.Equal(t, 0.2, m.Noise().Gain())
}

func TestManager_UpdateConfigChangesGainLive(t *testing.T) {
	out := audiotest.New(44100)
	m := audio.NewManagerWithOutput(config.DefaultConfig(), out, nil)
	defer m.Close()
	require.NoError(t, m.StartNoise())

	cfg := config.DefaultConfig()
	cfg.Noise.Gain = 0.1
	m.UpdateConfig(cfg)

	assert.True(t, m.NoiseRunning())
	_, _ = out.Last().Pull(4096)
	assert.LessOrEqual(t, out.Last().Peak(), 0.1)
}

func TestManager_PlayChimeWithoutSound(t *testing.T) {
	out := audiotest.New(44100)
	m := audio.NewManagerWithOutput(config.DefaultConfig(), out, nil)
	defer m.Close()

	assert.False(t, m.HasChime())
	assert.NoError(t, m.PlayChime())
	assert.Zero(t, out.Attempts())
}

func TestManager_PlayChimeMissingFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Notification.Sound = filepath.Join(t.TempDir(), "missing.wav")
	out := audiotest.New(44100)
	m := audio.NewManagerWithOutput(cfg, out, nil)
	defer m.Close()

	assert.Error(t, m.PlayChime())
	assert.Zero(t, out.Attempts())
}

func TestManager_PlayChimeUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chime.flac")
	require.NoError(t, os.WriteFile(path, []byte("not audio"), 0644))

	cfg := config.DefaultConfig()
	cfg.Notification.Sound = path
	m := audio.NewManagerWithOutput(cfg, audiotest.New(44100), nil)
	defer m.Close()

	err := m.PlayChime()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported audio format")
}

func TestManager_PlayChimeResamplesAndEnds(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Notification.Sound = writeChime(t, t.TempDir(), 22050, 2205)
	out := audiotest.New(44100)
	m := audio.NewManagerWithOutput(cfg, out, nil)
	defer m.Close()
	m.Start()

	require.True(t, m.HasChime())
	require.NoError(t, m.PlayChime())
	require.Equal(t, 1, out.Activations())

	pb := out.Last()
	drain(t, pb)

	assert.True(t, pb.Ended())
	assert.InDelta(t, 4410, pb.Frames(), 100)
	assert.Greater(t, pb.Peak(), 0.4)
}

func TestManager_PlayChimeAppliesVolume(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Notification.Sound = writeChime(t, t.TempDir(), 44100, 1000)
	cfg.Notification.Volume = 50
	out := audiotest.New(44100)
	m := audio.NewManagerWithOutput(cfg, out, nil)
	defer m.Close()

	require.NoError(t, m.PlayChime())
	drain(t, out.Last())

	assert.InDelta(t, 0.25, out.Last().Peak(), 0.01)
}

func TestManager_PlayChimeReleasesPreviousPlayback(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Notification.Sound = writeChime(t, t.TempDir(), 44100, 100)
	out := audiotest.New(44100)
	m := audio.NewManagerWithOutput(cfg, out, nil)
	defer m.Close()

	require.NoError(t, m.PlayChime())
	first := out.Last()
	drain(t, first)
	require.False(t, first.Deactivated())

	require.NoError(t, m.PlayChime())
	second := out.Last()
	assert.NotSame(t, first, second)
	assert.True(t, first.Deactivated())
	assert.False(t, second.Deactivated())
}

func TestManager_PlayChimeActivationFailure(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Notification.Sound = writeChime(t, t.TempDir(), 44100, 100)
	out := audiotest.New(44100)
	out.Err = assert.AnError
	m := audio.NewManagerWithOutput(cfg, out, nil)
	defer m.Close()

	err := m.PlayChime()

	var activationErr *audio.ActivationError
	assert.ErrorAs(t, err, &activationErr)
}

func TestManager_CloseStopsNoise(t *testing.T) {
	out := audiotest.New(44100)
	m := audio.NewManagerWithOutput(config.DefaultConfig(), out, nil)
	require.NoError(t, m.StartNoise())

	m.Close()

	assert.False(t, m.NoiseRunning())
	assert.True(t, out.Last().Deactivated())
}

func TestNewManager_UnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audio.Backend = "alsa"

	_, err := audio.NewManager(cfg, nil)
	assert.Error(t, err)
}

func TestManager_Probe(t *testing.T) {
	out := audiotest.New(44100)
	m := audio.NewManagerWithOutput(config.DefaultConfig(), out, nil)
	defer m.Close()

	require.NoError(t, m.Probe())
	assert.Equal(t, 1, out.Activations())
	assert.True(t, out.Last().Deactivated())

	out.Err = assert.AnError
	var activationErr *audio.ActivationError
	assert.ErrorAs(t, m.Probe(), &activationErr)
}
