// Package jsonfile implements entitystore.Backend over a single JSON file per
// collection, guarded by an advisory file lock so several processes can share
// one data directory.
//
// It supports only the required collection operations; server-side search and
// filtering report entitystore.ErrUnsupported, which makes consuming stores
// fall back to their client-side engine.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/newillusions/e-fees-sub005/entitystore"
	"github.com/newillusions/e-fees-sub005/identity"
)

const formatVersion = "1.0"

// lockTimeout bounds how long an operation waits for the file lock.
const lockTimeout = 3 * time.Second

// Config adapts the generic store to one entity type.
type Config[T any] struct {
	// Ref and SetRef read and replace the entity's identifier.
	Ref    func(T) identity.Ref
	SetRef func(T, identity.Ref) T

	// Touch stamps creation/update times on the entity. Optional.
	Touch func(entity T, created bool, at time.Time) T
}

// Store is a file-backed collection of one entity type.
type Store[T any] struct {
	path       string
	collection string
	cfg        Config[T]
	fileLock   *flock.Flock
	mu         sync.Mutex
	now        func() time.Time
}

// fileData is the on-disk layout.
type fileData[T any] struct {
	Records  []T      `json:"records"`
	Metadata metadata `json:"metadata"`
}

type metadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a store persisting the named collection at path. The file is
// created lazily on first write; a missing file reads as an empty collection.
func New[T any](path, collection string, cfg Config[T]) *Store[T] {
	return &Store[T]{
		path:       path,
		collection: collection,
		cfg:        cfg,
		fileLock:   flock.New(path + ".lock"),
		now:        time.Now,
	}
}

// SetTimeFunc overrides the clock for deterministic tests.
func (s *Store[T]) SetTimeFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = fn
}

// GetAll implements entitystore.Backend.
func (s *Store[T]) GetAll(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.acquireFileLock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return data.Records, nil
}

// Search implements entitystore.Backend; not supported by this backend.
func (s *Store[T]) Search(ctx context.Context, query string) ([]T, error) {
	return nil, entitystore.ErrUnsupported
}

// Filter implements entitystore.Backend; not supported by this backend.
func (s *Store[T]) Filter(ctx context.Context, criteria map[string]string) ([]T, error) {
	return nil, entitystore.ErrUnsupported
}

// Create implements entitystore.Backend. Entities without an identifier get
// a generated record reference in this store's collection.
func (s *Store[T]) Create(ctx context.Context, entity T) (T, error) {
	var zero T
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.acquireFileLock(ctx)
	if err != nil {
		return zero, err
	}
	defer unlock()

	data, err := s.load()
	if err != nil {
		return zero, err
	}

	if _, ok := s.cfg.Ref(entity).Resolve(); !ok {
		entity = s.cfg.SetRef(entity, identity.RecordRef(s.collection, uuid.NewString()))
	}
	now := s.now()
	if s.cfg.Touch != nil {
		entity = s.cfg.Touch(entity, true, now)
	}

	data.Records = append(data.Records, entity)
	if err := s.save(data, now); err != nil {
		return zero, err
	}
	return entity, nil
}

// Update implements entitystore.Backend, applying a shallow patch to the
// record with the given canonical identifier.
func (s *Store[T]) Update(ctx context.Context, id string, patch entitystore.Patch) (T, error) {
	var zero T
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.acquireFileLock(ctx)
	if err != nil {
		return zero, err
	}
	defer unlock()

	data, err := s.load()
	if err != nil {
		return zero, err
	}

	i := s.indexOf(data.Records, id)
	if i < 0 {
		return zero, fmt.Errorf("%w: %s", entitystore.ErrNotFound, id)
	}

	now := s.now()
	updated := entitystore.Apply(data.Records[i], patch)
	// The identifier is not patchable.
	updated = s.cfg.SetRef(updated, s.cfg.Ref(data.Records[i]))
	if s.cfg.Touch != nil {
		updated = s.cfg.Touch(updated, false, now)
	}
	data.Records[i] = updated

	if err := s.save(data, now); err != nil {
		return zero, err
	}
	return updated, nil
}

// Delete implements entitystore.Backend, returning the removed record.
func (s *Store[T]) Delete(ctx context.Context, id string) (T, error) {
	var zero T
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.acquireFileLock(ctx)
	if err != nil {
		return zero, err
	}
	defer unlock()

	data, err := s.load()
	if err != nil {
		return zero, err
	}

	i := s.indexOf(data.Records, id)
	if i < 0 {
		return zero, fmt.Errorf("%w: %s", entitystore.ErrNotFound, id)
	}

	removed := data.Records[i]
	data.Records = append(data.Records[:i], data.Records[i+1:]...)
	if err := s.save(data, s.now()); err != nil {
		return zero, err
	}
	return removed, nil
}

func (s *Store[T]) indexOf(records []T, id string) int {
	want := identity.PlainRef(id)
	for i, record := range records {
		if identity.Equal(s.cfg.Ref(record), want) {
			return i
		}
	}
	return -1
}

// acquireFileLock takes the advisory cross-process lock, bounded by
// lockTimeout and the caller's context.
func (s *Store[T]) acquireFileLock(ctx context.Context) (unlock func(), err error) {
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := s.fileLock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock on %s: %w", s.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire lock on %s", s.path)
	}
	return func() { _ = s.fileLock.Unlock() }, nil
}

func (s *Store[T]) load() (fileData[T], error) {
	var data fileData[T]

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return fileData[T]{
			Records:  []T{},
			Metadata: metadata{Version: formatVersion, CreatedAt: s.now()},
		}, nil
	}
	if err != nil {
		return data, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return fileData[T]{
			Records:  []T{},
			Metadata: metadata{Version: formatVersion, CreatedAt: s.now()},
		}, nil
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return data, nil
}

func (s *Store[T]) save(data fileData[T], at time.Time) error {
	data.Metadata.Version = formatVersion
	data.Metadata.UpdatedAt = at
	if data.Metadata.CreatedAt.IsZero() {
		data.Metadata.CreatedAt = at
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.path, err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	// Write to a temp file and rename for atomicity on the same filesystem.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
