package audio

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls the chime file and invalidates its decoded buffer when the
// file changes.
type Watcher struct {
	mu     sync.Mutex
	logger *slog.Logger
	chime  *Chime

	path    string
	modTime time.Time

	pollInterval time.Duration

	// Control channels
	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewWatcher creates a new chime file watcher.
func NewWatcher(chime *Chime, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		logger:       logger,
		chime:        chime,
		pollInterval: 2 * time.Second,
	}
}

// SetPollInterval sets the polling interval for file changes.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// Watch replaces the watched path. An empty path watches nothing.
func (w *Watcher) Watch(path string) {
	if path != "" {
		path = expandPath(path)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.path = path
	w.modTime = time.Time{}
	if path == "" {
		return
	}
	if info, err := os.Stat(path); err == nil {
		w.modTime = info.ModTime()
	}
}

// Start begins polling. It is a no-op if already running.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.watchLoop(w.pollInterval, w.stopCh, w.doneCh)

	w.logger.Debug("chime watcher started", "interval", w.pollInterval)
}

// Stop stops polling and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	doneCh := w.doneCh
	w.mu.Unlock()

	<-doneCh
	w.logger.Debug("chime watcher stopped")
}

func (w *Watcher) watchLoop(interval time.Duration, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// checkForChanges invalidates the chime if the file was modified or
// appeared since the last check.
func (w *Watcher) checkForChanges() {
	w.mu.Lock()
	path, last := w.path, w.modTime
	w.mu.Unlock()

	if path == "" {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}

	modTime := info.ModTime()
	if !modTime.After(last) {
		return
	}

	w.logger.Debug("chime file changed, invalidating cache", "path", path)

	w.mu.Lock()
	if w.path == path {
		w.modTime = modTime
	}
	w.mu.Unlock()

	w.chime.Invalidate(path)
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
