package countdown

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StorageName is the fixed record name the countdown is persisted under.
const StorageName = "duration-storage"

// SchemaVersion is the current version of the persisted snapshot.
const SchemaVersion = 1

var (
	// ErrNotFound is returned by Persister.Load when nothing has been persisted yet.
	ErrNotFound = errors.New("no persisted countdown state")

	// ErrCorrupt is returned by Persister.Load when the persisted data cannot
	// be trusted: unparsable, out of range or written by a newer schema.
	ErrCorrupt = errors.New("corrupt persisted countdown state")
)

// Persister is the storage port the Store hands snapshots to.
type Persister interface {
	// Load reads the persisted snapshot. Missing data is ErrNotFound and
	// untrustworthy data is ErrCorrupt.
	Load(ctx context.Context) (Snapshot, error)

	// Save replaces the persisted snapshot.
	Save(s Snapshot) error
}

// persistedState is the on-disk representation of a Snapshot.
type persistedState struct {
	Snapshot
	SchemaVersion int `json:"schema_version"`
}

// FilePersister stores the snapshot as a JSON file, written atomically.
type FilePersister struct {
	mu   sync.Mutex
	path string
}

// NewFilePersister creates a FilePersister writing to path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Path returns the file the snapshot is stored in.
func (p *FilePersister) Path() string {
	return p.path
}

// Load reads the snapshot from disk.
// A corrupted or out-of-range file yields the default snapshot and ErrCorrupt.
func (p *FilePersister) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return DefaultSnapshot(), err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSnapshot(), ErrNotFound
		}
		return DefaultSnapshot(), fmt.Errorf("read %s: %w", p.path, err)
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return DefaultSnapshot(), fmt.Errorf("%w: %s: %v", ErrCorrupt, p.path, err)
	}

	if state.SchemaVersion > SchemaVersion {
		return DefaultSnapshot(), fmt.Errorf("%w: %s: schema version %d is newer than %d",
			ErrCorrupt, p.path, state.SchemaVersion, SchemaVersion)
	}
	if !state.Snapshot.Valid() {
		return DefaultSnapshot(), fmt.Errorf("%w: %s: values out of range", ErrCorrupt, p.path)
	}

	return state.Snapshot, nil
}

// Save writes the snapshot to disk via a temp file and rename.
func (p *FilePersister) Save(s Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(persistedState{Snapshot: s, SchemaVersion: SchemaVersion}, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := p.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, p.path)
}

// MemoryPersister keeps the snapshot in memory. Useful for tests and for
// running without a data directory.
type MemoryPersister struct {
	mu       sync.Mutex
	snapshot *Snapshot
	saves    int

	// LoadErr, when set, is returned by Load.
	LoadErr error

	// Gate, when set, blocks Load until it is closed or ctx is done.
	Gate chan struct{}
}

// NewMemoryPersister creates a MemoryPersister. A nil snapshot means nothing is persisted.
func NewMemoryPersister(s *Snapshot) *MemoryPersister {
	return &MemoryPersister{snapshot: s}
}

// Load returns the stored snapshot.
func (p *MemoryPersister) Load(ctx context.Context) (Snapshot, error) {
	if p.Gate != nil {
		select {
		case <-p.Gate:
		case <-ctx.Done():
			return DefaultSnapshot(), ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.LoadErr != nil {
		return DefaultSnapshot(), p.LoadErr
	}
	if p.snapshot == nil {
		return DefaultSnapshot(), ErrNotFound
	}
	return *p.snapshot, nil
}

// Save stores the snapshot.
func (p *MemoryPersister) Save(s Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = &s
	p.saves++
	return nil
}

// Saved returns the last saved snapshot and whether one exists.
func (p *MemoryPersister) Saved() (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snapshot == nil {
		return Snapshot{}, false
	}
	return *p.snapshot, true
}

// Saves returns how many times Save was called.
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}
