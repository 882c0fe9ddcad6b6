package segmentlog

import (
	"io"

	"github.com/iamNilotpal/capsule/internal/model"
	sperrors "github.com/iamNilotpal/capsule/pkg/errors"
)

// Txn stages newly appended segments in memory until Commit, implementing
// the "begin_transaction / commit / rollback" contract. Only
// one Txn may be open on a Log at a time (writerMu enforces the
// single-writer-per-transaction rule from the concurrency model); data
// bytes are written to the real file immediately (so fsync failures are
// caught early) but the tail is truncated back on Rollback, and staged
// metadata never reaches the committed segment table or sidecar unless
// Commit succeeds.
type Txn struct {
	log     *Log
	preTail int64
	staged  map[model.SegmentId]Record
	byHash  map[string]model.SegmentId
	done    bool
}

// BeginTransaction acquires the log's single-writer slot and opens a new
// transaction rooted at the current tail.
func (l *Log) BeginTransaction() *Txn {
	l.writerMu.Lock()

	l.fileMu.Lock()
	preTail := l.tail
	l.fileMu.Unlock()

	return &Txn{
		log:     l,
		preTail: preTail,
		staged:  make(map[model.SegmentId]Record, 16),
		byHash:  make(map[string]model.SegmentId, 16),
	}
}

// Append writes data to the end of the log's data file under this
// transaction, fsyncs, and stages the segment's metadata record (derived
// from seg, with ByteOffsetInLog/StoredLen filled in from the write). The
// staged record is visible to this transaction's PendingSegment lookups
// only; it is not visible to other readers or transactions until Commit.
func (t *Txn) Append(seg model.Segment, data []byte) (model.Segment, error) {
	if t.done {
		return model.Segment{}, sperrors.NewCapsuleError(nil, sperrors.ErrorCodeInvalidInput, "transaction already closed")
	}

	t.log.fileMu.Lock()
	offset := t.log.tail
	_, err := t.log.file.Write(data)
	if err == nil {
		err = t.log.file.Sync()
	}
	if err != nil {
		t.log.fileMu.Unlock()
		return model.Segment{}, sperrors.NewCapsuleError(err, sperrors.ErrorCodeIO, "failed to append segment bytes").
			WithSegmentID(uint64(seg.ID)).WithOffset(offset)
	}
	t.log.tail += int64(len(data))
	t.log.fileMu.Unlock()

	seg.ByteOffsetInLog = offset
	seg.StoredLen = uint32(len(data))

	rec := fromModel(seg)
	t.staged[seg.ID] = rec
	if seg.HasContentHash {
		t.byHash[seg.ContentHash.String()] = seg.ID
	}
	return rec.toModel(), nil
}

// PendingSegment looks up a content hash against segments staged earlier in
// this same, still-uncommitted transaction — the "staged dedup" mechanism
// that lets a write dedup against its own in-flight segments without a
// round-trip through the persistent catalog.
func (t *Txn) PendingSegment(hash string) (model.Segment, bool) {
	id, ok := t.byHash[hash]
	if !ok {
		return model.Segment{}, false
	}
	rec, ok := t.staged[id]
	if !ok {
		return model.Segment{}, false
	}
	return rec.toModel(), true
}

// IncrementStagedRefcount bumps the refcount of a segment appended earlier
// in this same transaction (a "ReusedStaged" dedup hit).
func (t *Txn) IncrementStagedRefcount(id model.SegmentId) (model.Segment, error) {
	rec, ok := t.staged[id]
	if !ok {
		return model.Segment{}, sperrors.NewCapsuleError(nil, sperrors.ErrorCodeNotFound, "segment not staged in this transaction").
			WithSegmentID(uint64(id))
	}
	rec.RefCount++
	rec.Deduplicated = rec.RefCount > 1
	t.staged[id] = rec
	return rec.toModel(), nil
}

// Commit merges every staged segment into the log's committed table and
// persists the sidecar exactly once, then releases the writer slot.
func (t *Txn) Commit() error {
	if t.done {
		return sperrors.NewCapsuleError(nil, sperrors.ErrorCodeInvalidInput, "transaction already closed")
	}
	t.done = true
	defer t.log.writerMu.Unlock()

	t.log.metaMu.Lock()
	for id, rec := range t.staged {
		t.log.segments[id] = rec
	}
	err := t.log.persistSidecar()
	t.log.metaMu.Unlock()

	return err
}

// Rollback discards every staged segment and truncates the data file back
// to the transaction's starting tail, freeing the reserved space — "I/O
// failures during append leave the log tail advanced only if fsync
// succeeded; on partial failure the transaction rollback truncates the tail
// back to the pre-txn mark."
func (t *Txn) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.log.writerMu.Unlock()

	t.log.fileMu.Lock()
	defer t.log.fileMu.Unlock()

	if err := t.log.file.Truncate(t.preTail); err != nil {
		return sperrors.NewCapsuleError(err, sperrors.ErrorCodeIO, "failed to truncate segment log on rollback").
			WithOffset(t.preTail)
	}
	if _, err := t.log.file.Seek(t.preTail, io.SeekStart); err != nil {
		return sperrors.NewCapsuleError(err, sperrors.ErrorCodeIO, "failed to reposition segment log after rollback").
			WithOffset(t.preTail)
	}
	t.log.tail = t.preTail
	return nil
}
