package segmentlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamNilotpal/capsule/internal/model"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	dir := t.TempDir()
	log, err := Open(context.Background(), dir, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestAppendCommitThenRead(t *testing.T) {
	l := openTestLog(t)

	txn := l.BeginTransaction()
	seg := model.Segment{ID: 1, RefCount: 1}
	committed, err := txn.Append(seg, []byte("hello segment"))
	require.NoError(t, err)
	assert.Equal(t, uint32(len("hello segment")), committed.StoredLen)

	require.NoError(t, txn.Commit())

	got, err := l.Read(1)
	require.NoError(t, err)
	assert.Equal(t, "hello segment", string(got))
}

func TestRollbackDiscardsStagedSegments(t *testing.T) {
	l := openTestLog(t)

	txn := l.BeginTransaction()
	_, err := txn.Append(model.Segment{ID: 1, RefCount: 1}, []byte("doomed"))
	require.NoError(t, err)
	require.NoError(t, txn.Rollback())

	_, err = l.Read(1)
	assert.Error(t, err)

	// The writer slot must be released: a new transaction can begin.
	txn2 := l.BeginTransaction()
	require.NoError(t, txn2.Rollback())
}

func TestPendingSegmentWithinTransaction(t *testing.T) {
	l := openTestLog(t)

	txn := l.BeginTransaction()
	seg := model.Segment{ID: 1, RefCount: 1, HasContentHash: true}
	_, err := txn.Append(seg, []byte("staged content"))
	require.NoError(t, err)

	found, ok := txn.PendingSegment(seg.ContentHash.String())
	assert.True(t, ok)
	assert.Equal(t, model.SegmentId(1), found.ID)

	_, err = txn.IncrementStagedRefcount(1)
	require.NoError(t, err)

	require.NoError(t, txn.Commit())

	meta, err := l.GetMetadata(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), meta.RefCount)
	assert.True(t, meta.Deduplicated)
}

func TestIncrementAndDecrementRefcount(t *testing.T) {
	l := openTestLog(t)

	txn := l.BeginTransaction()
	_, err := txn.Append(model.Segment{ID: 1, RefCount: 1}, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	seg, err := l.IncrementRefcount(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), seg.RefCount)
	assert.True(t, seg.Deduplicated)

	seg, err = l.DecrementRefcount(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), seg.RefCount)

	seg, err = l.DecrementRefcount(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), seg.RefCount)

	// Saturates at zero, never goes negative.
	seg, err = l.DecrementRefcount(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), seg.RefCount)
}

func TestRemoveSegmentIsIdempotent(t *testing.T) {
	l := openTestLog(t)

	txn := l.BeginTransaction()
	_, err := txn.Append(model.Segment{ID: 1, RefCount: 1}, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	removed, err := l.RemoveSegment(1)
	require.NoError(t, err)
	require.NotNil(t, removed)

	removedAgain, err := l.RemoveSegment(1)
	require.NoError(t, err)
	assert.Nil(t, removedAgain)
}

func TestReopenRecoversSegments(t *testing.T) {
	dir := t.TempDir()
	log1, err := Open(context.Background(), dir, zap.NewNop().Sugar())
	require.NoError(t, err)

	txn := log1.BeginTransaction()
	_, err = txn.Append(model.Segment{ID: 1, RefCount: 1}, []byte("persisted"))
	require.NoError(t, err)
	require.NoError(t, txn.Commit())
	require.NoError(t, log1.Close())

	log2, err := Open(context.Background(), dir, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = log2.Close() })

	got, err := log2.Read(1)
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}

func TestTouchAccessCount(t *testing.T) {
	l := openTestLog(t)

	txn := l.BeginTransaction()
	_, err := txn.Append(model.Segment{ID: 1, RefCount: 1}, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	l.TouchAccessCount(1)
	l.TouchAccessCount(1)

	meta, err := l.GetMetadata(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), meta.AccessCount)
}
