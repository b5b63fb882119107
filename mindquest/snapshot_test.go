package mindquest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testState struct {
	Count int64    `json:"count"`
	Tags  []string `json:"tags,omitempty"`
}

func newTestStore() *snapshotStore[testState] {
	return newSnapshotStore[testState]("tests", "state",
		func() *testState { return &testState{} },
		func(s *testState) error {
			if s.Count < 0 {
				return fmt.Errorf("negative count")
			}
			return nil
		})
}

func TestSnapshotStore_LoadSeedsAndCaches(t *testing.T) {
	store := newTestStore()
	nk := NewMockNakamaModule()
	logger := &mockLogger{}
	ctx := context.Background()

	first := store.load(ctx, logger, nk, "user1")
	assert.Equal(t, int64(0), first.Count)

	// Repeat loads return the same cached instance without re-reading storage.
	second := store.load(ctx, logger, nk, "user1")
	assert.Same(t, first, second)
}

func TestSnapshotStore_LoadDiscardsCorruptAndInvalidData(t *testing.T) {
	store := newTestStore()
	nk := NewMockNakamaModule()
	logger := &mockLogger{}
	ctx := context.Background()

	nk.SetStoredObject("tests", "state", "user1", "{broken")
	assert.Equal(t, int64(0), store.load(ctx, logger, nk, "user1").Count)

	nk.SetStoredObject("tests", "state", "user2", `{"count":-3}`)
	assert.Equal(t, int64(0), store.load(ctx, logger, nk, "user2").Count)

	nk.SetStoredObject("tests", "state", "user3", `{"count":7}`)
	assert.Equal(t, int64(7), store.load(ctx, logger, nk, "user3").Count)
}

func TestSnapshotStore_CommitWritesThrough(t *testing.T) {
	store := newTestStore()
	nk := NewMockNakamaModule()
	logger := &mockLogger{}
	ctx := context.Background()

	store.commit(ctx, logger, nk, "user1", &testState{Count: 5})
	assert.JSONEq(t, `{"count":5}`, nk.StoredObject("tests", "state", "user1"))
	assert.False(t, store.writePending("user1"))
	assert.Equal(t, int64(5), store.load(ctx, logger, nk, "user1").Count)
}

func TestSnapshotStore_CommitSurvivesWriteFailure(t *testing.T) {
	store := newTestStore()
	nk := NewMockNakamaModule()
	logger := &mockLogger{}
	ctx := context.Background()
	nk.FailWrites = true

	store.commit(ctx, logger, nk, "user1", &testState{Count: 5})
	assert.Empty(t, nk.StoredObject("tests", "state", "user1"))
	assert.True(t, store.writePending("user1"))
	assert.Equal(t, int64(5), store.load(ctx, logger, nk, "user1").Count)

	// The next commit carries the full state, so nothing is lost once writes recover.
	nk.FailWrites = false
	store.commit(ctx, logger, nk, "user1", &testState{Count: 6})
	assert.JSONEq(t, `{"count":6}`, nk.StoredObject("tests", "state", "user1"))
	assert.False(t, store.writePending("user1"))
}

func TestSnapshotStore_ImportRejectsInvalid(t *testing.T) {
	store := newTestStore()
	nk := NewMockNakamaModule()
	logger := &mockLogger{}
	ctx := context.Background()

	_, err := store.importRaw(ctx, logger, nk, "user1", `{"count":-1}`)
	assert.ErrorIs(t, err, ErrSnapshotCorrupted)

	state, err := store.importRaw(ctx, logger, nk, "user1", `{"count":9}`)
	require.NoError(t, err)
	assert.Equal(t, int64(9), state.Count)
}

func TestCloneSnapshot_DetachesState(t *testing.T) {
	original := &testState{Count: 3, Tags: []string{"a"}}

	clone, err := cloneSnapshot(original)
	require.NoError(t, err)

	clone.Count = 9
	clone.Tags = append(clone.Tags, "b")
	assert.Equal(t, int64(3), original.Count)
	assert.Equal(t, []string{"a"}, original.Tags)
}
