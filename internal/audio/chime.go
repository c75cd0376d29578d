package audio

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Chime plays the completion sound.
type Chime struct {
	mu     sync.Mutex
	logger *slog.Logger
	output Output

	// Volume control (0.0 to 1.0)
	volume float64

	// Last started playback, stopped on Close
	playback Playback

	// Decoded sounds by path
	cache      map[string]*beep.Buffer
	cacheMutex sync.RWMutex
}

// NewChime creates a chime player rendering through output.
func NewChime(output Output, logger *slog.Logger) *Chime {
	if logger == nil {
		logger = slog.Default()
	}

	return &Chime{
		logger: logger,
		output: output,
		volume: 1.0,
		cache:  make(map[string]*beep.Buffer),
	}
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (c *Chime) SetVolume(volume float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = min(max(volume, 0), 1)
	c.logger.Debug("chime volume set", "volume", c.volume)
}

// Volume returns the current volume.
func (c *Chime) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Play plays a sound file. Supports WAV, OGG and MP3. An empty path is a no-op.
func (c *Chime) Play(path string) error {
	if path == "" {
		return nil
	}
	path = expandPath(path)

	buffer, err := c.load(path)
	if err != nil {
		c.logger.Warn("failed to load chime", "path", path, "error", err)
		return err
	}

	pb, err := c.output.Activate(c.streamer(buffer))
	if err != nil {
		return err
	}

	c.mu.Lock()
	prev := c.playback
	c.playback = pb
	c.mu.Unlock()

	// Release the previous chime's playback; it has usually ended already.
	if prev != nil {
		prev.Deactivate()
	}
	return nil
}

// Preload decodes a sound file into the cache.
func (c *Chime) Preload(path string) error {
	if path == "" {
		return nil
	}
	_, err := c.load(expandPath(path))
	return err
}

// load returns the cached buffer for path, decoding it on first use.
func (c *Chime) load(path string) (*beep.Buffer, error) {
	c.cacheMutex.RLock()
	buffer, ok := c.cache[path]
	c.cacheMutex.RUnlock()
	if ok {
		return buffer, nil
	}

	buffer, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	c.cacheMutex.Lock()
	c.cache[path] = buffer
	c.cacheMutex.Unlock()

	c.logger.Debug("decoded chime", "path", path, "sample_rate", buffer.Format().SampleRate)
	return buffer, nil
}

// streamer builds a resampled, volume-adjusted streamer over buffer.
func (c *Chime) streamer(buffer *beep.Buffer) beep.Streamer {
	volume := c.Volume()
	rate := c.output.SampleRate()

	var s beep.Streamer = buffer.Streamer(0, buffer.Len())

	if buffer.Format().SampleRate != rate {
		s = beep.Resample(4, buffer.Format().SampleRate, rate, s)
	}

	if volume < 1.0 {
		s = &effects.Volume{
			Streamer: s,
			Base:     2,
			Volume:   volumeToExponent(volume),
			Silent:   volume == 0,
		}
	}
	return s
}

// Invalidate drops the decoded buffer for path.
func (c *Chime) Invalidate(path string) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	delete(c.cache, expandPath(path))
}

// ClearCache drops all decoded sounds.
func (c *Chime) ClearCache() {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	c.cache = make(map[string]*beep.Buffer)
}

// Close stops the last chime and clears the cache.
func (c *Chime) Close() {
	c.mu.Lock()
	pb := c.playback
	c.playback = nil
	c.mu.Unlock()

	if pb != nil {
		pb.Deactivate()
	}
	c.ClearCache()
}

// decodeFile decodes a whole sound file into memory.
func decodeFile(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	return buffer, nil
}

// volumeToExponent converts a linear volume (0-1) to a base-2 exponent for
// effects.Volume, so 0.5 is one step down.
func volumeToExponent(volume float64) float64 {
	if volume <= 0 {
		return -10
	}
	return math.Log2(volume)
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
