package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrSnapshotNotFound is returned by Backend.Load when nothing has been persisted yet.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrPersistence matches every *PersistenceError via errors.Is.
	ErrPersistence = errors.New("snapshot persistence failure")
)

// PersistenceError reports a failed load or save. The store's in-memory
// state is unchanged when a save fails.
type PersistenceError struct {
	Op  string // create, update, add_event, init, load, decode
	Err error
}

// Error implements error.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("snapshot %s: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrPersistence and the underlying cause.
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// Backend is the durable medium behind a Store. Save always receives the
// complete encoded state and replaces whatever was stored before.
type Backend interface {
	Driver() string
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Ping(ctx context.Context) error
}

// FileBackend stores the snapshot in a single file. Saves write a sibling
// temp file, fsync it and rename it over the target, so readers never see a
// partially written snapshot.
type FileBackend struct {
	path string
}

// NewFileBackend returns a FileBackend for path. The parent directory is
// created on the first save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Driver reports "file".
func (b *FileBackend) Driver() string { return "file" }

// Path returns the snapshot file location.
func (b *FileBackend) Path() string { return b.path }

// Load reads the snapshot file. A missing file yields ErrSnapshotNotFound.
func (b *FileBackend) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	return data, nil
}

// Save atomically replaces the snapshot file with data.
func (b *FileBackend) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o640); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}

// Ping verifies the snapshot directory exists.
func (b *FileBackend) Ping(_ context.Context) error {
	dir := filepath.Dir(b.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// MemoryBackend keeps the snapshot in memory. Used in tests and for
// ephemeral runs where nothing should touch disk.
type MemoryBackend struct {
	mu    sync.Mutex
	data  []byte
	saved bool
	saves int
}

// NewMemoryBackend returns an empty MemoryBackend; its first Load reports
// ErrSnapshotNotFound.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Driver reports "memory".
func (b *MemoryBackend) Driver() string { return "memory" }

// Load returns a copy of the last saved snapshot, or ErrSnapshotNotFound
// before the first Save.
func (b *MemoryBackend) Load(_ context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.saved {
		return nil, ErrSnapshotNotFound
	}
	return append([]byte(nil), b.data...), nil
}

// Save keeps a copy of data as the current snapshot.
func (b *MemoryBackend) Save(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append([]byte(nil), data...)
	b.saved = true
	b.saves++
	return nil
}

// Ping always succeeds.
func (b *MemoryBackend) Ping(_ context.Context) error { return nil }

// Bytes returns a copy of the last saved snapshot.
func (b *MemoryBackend) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.data...)
}

// Saves returns how many times Save has been called.
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}
