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

// SchemaVersion is the current history file schema version.
const SchemaVersion = 1

// ErrLogClosed is returned when operations are attempted on a closed log.
var ErrLogClosed = errors.New("history log is closed")

// schemaHeader is the first line of the JSONL file.
type schemaHeader struct {
	FocusdeskSchemaVersion int   `json:"focusdesk_schema_version"`
	CreatedAt              int64 `json:"created_at"`
}

// Log is a JSONL file of sessions, one per line after a schema header.
type Log struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// Open opens the log at path, creating it with a header if needed.
func Open(path string) (*Log, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	l := &Log{
		path: path,
		file: file,
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	if info.Size() == 0 {
		if err := l.writeHeader(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return l, nil
}

// Path returns the file backing the log.
func (l *Log) Path() string {
	return l.path
}

func (l *Log) writeHeader() error {
	header := schemaHeader{
		FocusdeskSchemaVersion: SchemaVersion,
		CreatedAt:              time.Now().Unix(),
	}

	data, err := json.Marshal(header)
	if err != nil {
		return err
	}

	_, err = l.file.Write(append(data, '\n'))
	return err
}

// Load reads every session in file order. Malformed lines are skipped.
func (l *Log) Load() ([]Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.file == nil {
		return nil, ErrLogClosed
	}

	if _, err := l.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", l.path, err)
	}

	var sessions []Session
	scanner := bufio.NewScanner(l.file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if lineNum == 1 {
			var header schemaHeader
			if err := json.Unmarshal(line, &header); err == nil && header.FocusdeskSchemaVersion > 0 {
				if header.FocusdeskSchemaVersion > SchemaVersion {
					return nil, fmt.Errorf("unsupported schema version %d (max: %d)",
						header.FocusdeskSchemaVersion, SchemaVersion)
				}
				continue
			}
		}

		var s Session
		if err := json.Unmarshal(line, &s); err != nil {
			continue
		}
		if s.Validate() == nil {
			sessions = append(sessions, s)
		}
	}

	if err := scanner.Err(); err != nil {
		return sessions, fmt.Errorf("error reading file: %w", err)
	}

	// O_APPEND writes ignore the offset, but leave it at the end anyway
	if _, err := l.file.Seek(0, io.SeekEnd); err != nil {
		return sessions, err
	}

	return sessions, nil
}

// Append adds a session to the log and syncs it to disk.
func (l *Log) Append(s Session) error {
	if err := s.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.file == nil {
		return ErrLogClosed
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return err
	}
	return l.file.Sync()
}

// Record appends a new session for a countdown of minutes finished at completedAt.
func (l *Log) Record(minutes int, completedAt time.Time) error {
	s, err := NewSession(minutes, completedAt)
	if err != nil {
		return err
	}
	return l.Append(s)
}

// Rewrite replaces the log contents with sessions, keeping a backup until
// the new file is written.
func (l *Log) Rewrite(sessions []Session) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLogClosed
	}

	if l.file != nil {
		if err := l.file.Close(); err != nil {
			return err
		}
		l.file = nil
	}

	backupPath := l.path + ".bak"
	if err := os.Rename(l.path, backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND, 0600)
	if err != nil {
		_ = os.Rename(backupPath, l.path)
		return fmt.Errorf("failed to create new file: %w", err)
	}
	l.file = file

	if err := l.writeHeader(); err != nil {
		return err
	}

	for _, s := range sessions {
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		if _, err := l.file.Write(append(data, '\n')); err != nil {
			return err
		}
	}

	if err := l.file.Sync(); err != nil {
		return err
	}

	_ = os.Remove(backupPath)
	return nil
}

// Prune removes sessions that completed before cutoff and returns how many were removed.
func (l *Log) Prune(cutoff time.Time) (int, error) {
	sessions, err := l.Load()
	if err != nil {
		return 0, err
	}

	kept := sessions[:0:0]
	for _, s := range sessions {
		if !s.Time().Before(cutoff) {
			kept = append(kept, s)
		}
	}

	removed := len(sessions) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, l.Rewrite(kept)
}

// Close releases the file handle.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}
