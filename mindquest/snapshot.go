package mindquest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
)

// snapshotStore holds one progression instance's per-user snapshots. The in-memory
// copy is authoritative: durable reads only happen on first access, and a failed
// durable write degrades the user to in-memory-only operation until the next mutation
// retries the write. Writes are last-write-wins with no storage version, because a
// version conflict could otherwise force the durable copy to override memory.
type snapshotStore[T any] struct {
	collection string
	key        string

	// newDefault seeds a fresh snapshot when none exists or the stored one is corrupt.
	newDefault func() *T
	// validate normalizes derived fields and rejects snapshots that break invariants.
	validate func(*T) error

	mu      sync.Mutex
	cache   map[string]*T
	pending map[string]bool
}

func newSnapshotStore[T any](collection, key string, newDefault func() *T, validate func(*T) error) *snapshotStore[T] {
	return &snapshotStore[T]{
		collection: collection,
		key:        key,
		newDefault: newDefault,
		validate:   validate,
		cache:      make(map[string]*T),
		pending:    make(map[string]bool),
	}
}

// load returns the authoritative snapshot for a user. Stored data that fails to parse
// or validate is discarded with a warning and replaced by defaults rather than failing
// the operation.
func (s *snapshotStore[T]) load(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) *T {
	s.mu.Lock()
	if snapshot, ok := s.cache[userID]; ok {
		s.mu.Unlock()
		return snapshot
	}
	s.mu.Unlock()

	snapshot := s.readStorage(ctx, logger, nk, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	// A concurrent first access may have won the race; keep whichever landed first.
	if cached, ok := s.cache[userID]; ok {
		return cached
	}
	s.cache[userID] = snapshot
	return snapshot
}

func (s *snapshotStore[T]) readStorage(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) *T {
	objects, err := nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: s.collection,
		Key:        s.key,
		UserID:     userID,
	}})
	if err != nil {
		logger.Warn("Failed to read snapshot %s/%s, starting from defaults: %v", s.collection, s.key, err)
		return s.newDefault()
	}
	if len(objects) == 0 || objects[0].Value == "" {
		return s.newDefault()
	}

	snapshot := new(T)
	if err := json.Unmarshal([]byte(objects[0].Value), snapshot); err != nil {
		logger.Warn("Discarding corrupted snapshot %s/%s: %v", s.collection, s.key, err)
		return s.newDefault()
	}
	if err := s.validate(snapshot); err != nil {
		logger.Warn("Discarding invalid snapshot %s/%s: %v", s.collection, s.key, err)
		return s.newDefault()
	}
	return snapshot
}

// commit atomically installs the snapshot as the authoritative in-memory state and
// attempts the durable write. The durable write is fire-and-forget: a failure is
// logged as a recoverable warning and the full snapshot is written again on the next
// commit, so commit never fails the calling operation for storage reasons.
func (s *snapshotStore[T]) commit(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, snapshot *T) {
	s.mu.Lock()
	s.cache[userID] = snapshot
	s.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		logger.Error("Failed to marshal snapshot %s/%s: %v", s.collection, s.key, err)
		return
	}

	_, err = nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      s.collection,
		Key:             s.key,
		UserID:          userID,
		Value:           string(data),
		PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_OWNER_WRITE,
	}})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		logger.Warn("Snapshot write failed for %s/%s, state remains in memory and the write will be retried: %v", s.collection, s.key, err)
		s.pending[userID] = true
		return
	}
	delete(s.pending, userID)
}

// export serializes the authoritative snapshot to its raw persisted form.
func (s *snapshotStore[T]) export(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (string, error) {
	snapshot := s.load(ctx, logger, nk, userID)
	data, err := json.Marshal(snapshot)
	if err != nil {
		logger.Error("Failed to marshal snapshot %s/%s: %v", s.collection, s.key, err)
		return "", ErrPayloadEncode
	}
	return string(data), nil
}

// importRaw validates a caller-provided raw snapshot and, unlike storage loads, rejects
// corrupt data instead of silently reseeding defaults.
func (s *snapshotStore[T]) importRaw(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, raw string) (*T, error) {
	if raw == "" {
		return nil, ErrSnapshotCorrupted
	}
	snapshot := new(T)
	if err := json.Unmarshal([]byte(raw), snapshot); err != nil {
		logger.Warn("Rejected snapshot import: %v", err)
		return nil, ErrSnapshotCorrupted
	}
	if err := s.validate(snapshot); err != nil {
		logger.Warn("Rejected snapshot import: %v", err)
		return nil, ErrSnapshotCorrupted
	}
	s.commit(ctx, logger, nk, userID, snapshot)
	return snapshot, nil
}

// writePending reports whether a durable write is still owed for the user.
func (s *snapshotStore[T]) writePending(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[userID]
}

// cloneSnapshot produces the detached copy every mutating operation works on, so the
// previous snapshot stays observable until the replacement is committed.
func cloneSnapshot[T any](snapshot *T) (*T, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, ErrInternal
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, ErrInternal
	}
	return out, nil
}
