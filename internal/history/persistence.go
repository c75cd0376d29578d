package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SchemaVersion is the current persistence schema version.
const SchemaVersion = 1

// ErrClosed is returned when operations are attempted on a closed file.
var ErrClosed = errors.New("history is closed")

// schemaHeader is the first line of the JSONL file.
type schemaHeader struct {
	TimSchemaVersion int   `json:"tim_schema_version"`
	CreatedAt        int64 `json:"created_at"`
}

// File stores sessions as JSONL, one session per line after a schema header.
type File struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// Open opens or creates the history file at path.
func Open(path string) (*File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	f := &File{path: path, file: file}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.Size() == 0 {
		if err := f.writeHeader(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return f, nil
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

func (f *File) writeHeader() error {
	data, err := json.Marshal(schemaHeader{
		TimSchemaVersion: SchemaVersion,
		CreatedAt:        time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	_, err = f.file.Write(append(data, '\n'))
	return err
}

// Load reads all sessions, oldest first. Malformed lines are skipped.
func (f *File) Load() ([]Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.file == nil {
		return nil, ErrClosed
	}

	if _, err := f.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", f.path, err)
	}

	var sessions []Session
	scanner := bufio.NewScanner(f.file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if lineNum == 1 {
			var header schemaHeader
			if err := json.Unmarshal(line, &header); err == nil && header.TimSchemaVersion > 0 {
				if header.TimSchemaVersion > SchemaVersion {
					return nil, fmt.Errorf("unsupported schema version %d (max: %d)",
						header.TimSchemaVersion, SchemaVersion)
				}
				continue
			}
		}

		var s Session
		if err := json.Unmarshal(line, &s); err != nil || s.ID == "" {
			continue
		}
		sessions = append(sessions, s)
	}

	if err := scanner.Err(); err != nil {
		return sessions, fmt.Errorf("error reading file: %w", err)
	}

	// Seek back to end for appending
	if _, err := f.file.Seek(0, io.SeekEnd); err != nil {
		return sessions, err
	}

	return sessions, nil
}

// Append adds a session.
func (f *File) Append(s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.file == nil {
		return ErrClosed
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if _, err := f.file.Write(append(data, '\n')); err != nil {
		return err
	}
	return f.file.Sync()
}

// Rewrite replaces the file contents with sessions.
func (f *File) Rewrite(sessions []Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	if f.file != nil {
		if err := f.file.Close(); err != nil {
			return err
		}
		f.file = nil
	}

	backupPath := f.path + ".bak"
	if err := os.Rename(f.path, backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE|os.O_APPEND|os.O_TRUNC, 0600)
	if err != nil {
		_ = os.Rename(backupPath, f.path)
		return fmt.Errorf("failed to create new file: %w", err)
	}
	f.file = file

	if err := f.writeHeader(); err != nil {
		return err
	}
	for _, s := range sessions {
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		if _, err := f.file.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	if err := f.file.Sync(); err != nil {
		return err
	}

	_ = os.Remove(backupPath)
	return nil
}

// Prune keeps only the newest keep sessions and returns how many were
// removed. keep <= 0 keeps everything.
func (f *File) Prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	sessions, err := f.Load()
	if err != nil {
		return 0, err
	}
	if len(sessions) <= keep {
		return 0, nil
	}

	removed := len(sessions) - keep
	if err := f.Rewrite(sessions[removed:]); err != nil {
		return 0, err
	}
	return removed, nil
}

// Close releases the file handle.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	if f.file != nil {
		err := f.file.Close()
		f.file = nil
		return err
	}
	return nil
}
