// Package segmentlog implements the append-only segment data file plus its
// crash-safe metadata sidecar: durable byte storage for compressed/encrypted
// chunks, and the refcount mutators that make up half of the
// reference-count lifecycle. Modeled on the original internal/storage
// (single active segment file, O_APPEND+fsync discipline, seek-to-end
// bootstrap) and pkg/seginfo (segment file naming), generalized from "one
// growing WAL file" to "one data file per Log plus a sidecar of per-segment
// byte ranges", since capsule segments are addressed by id, not replayed
// sequentially like a Bitcask WAL.
package segmentlog

import (
	"bytes"
	"context"
	"encoding/gob"
	"io"
	"os"
	"path/filepath"
	"sync"

	natomic "github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/iamNilotpal/capsule/internal/model"
	sperrors "github.com/iamNilotpal/capsule/pkg/errors"
	"github.com/iamNilotpal/capsule/pkg/filesys"
)

const (
	dataFileName    = "segments.dat"
	sidecarFileName = "segments.meta"
)

// Log owns one data file and its sidecar. writerMu enforces the "single
// writer at a time per transaction" rule from the concurrency model;
// metaMu separately guards the in-memory segments map so readers never
// block behind an in-flight transaction's preparation work.
type Log struct {
	dataPath    string
	sidecarPath string

	writerMu sync.Mutex // held for the lifetime of one open Txn

	metaMu   sync.RWMutex
	segments map[model.SegmentId]Record

	fileMu sync.Mutex // guards file + tail against concurrent Append/Read seeks
	file   *os.File
	tail   int64

	log *zap.SugaredLogger
}

// Open creates or recovers a Log rooted at dir: the data file is opened
// O_CREATE|O_RDWR|O_APPEND (exactly as the original openSegmentFile helper) and
// positioned at its current end; the sidecar, if present, is decoded to
// repopulate the in-memory segment table.
func Open(ctx context.Context, dir string, log *zap.SugaredLogger) (*Log, error) {
	if err := filesys.CreateDir(dir, 0o755, true); err != nil {
		return nil, sperrors.NewCapsuleError(err, sperrors.ErrorCodeIO, "failed to create segment log directory").
			WithPath(dir)
	}

	dataPath := filepath.Join(dir, dataFileName)
	sidecarPath := filepath.Join(dir, sidecarFileName)

	file, err := os.OpenFile(dataPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, sperrors.NewCapsuleError(err, sperrors.ErrorCodeIO, "failed to open segment data file").
			WithPath(dataPath).WithFileName(dataFileName)
	}

	tail, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		_ = file.Close()
		return nil, sperrors.NewCapsuleError(err, sperrors.ErrorCodeIO, "failed to seek to end of segment data file").
			WithPath(dataPath)
	}

	l := &Log{
		dataPath:    dataPath,
		sidecarPath: sidecarPath,
		segments:    make(map[model.SegmentId]Record, 1024),
		file:        file,
		tail:        tail,
		log:         log,
	}

	if err := l.loadSidecar(); err != nil {
		_ = file.Close()
		return nil, err
	}

	log.Infow("segment log opened", "dataPath", dataPath, "tail", tail, "segments", len(l.segments))
	return l, nil
}

func (l *Log) loadSidecar() error {
	raw, err := os.ReadFile(l.sidecarPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return sperrors.NewCapsuleError(err, sperrors.ErrorCodeIO, "failed to read segment sidecar").
			WithPath(l.sidecarPath)
	}
	if len(raw) == 0 {
		return nil
	}

	var decoded map[model.SegmentId]Record
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&decoded); err != nil {
		return sperrors.NewCapsuleError(err, sperrors.ErrorCodeSegmentCorrupted, "segment sidecar is corrupted").
			WithPath(l.sidecarPath)
	}
	l.segments = decoded
	return nil
}

// persistSidecar atomically replaces the sidecar file with the current
// segment table, as required by "updates are atomic (write-temp-then-rename
// or equivalent)".
func (l *Log) persistSidecar() error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(l.segments); err != nil {
		return sperrors.NewCapsuleError(err, sperrors.ErrorCodeIO, "failed to encode segment sidecar")
	}
	if err := natomic.WriteFile(l.sidecarPath, &buf); err != nil {
		return sperrors.NewCapsuleError(err, sperrors.ErrorCodeIO, "failed to persist segment sidecar").
			WithPath(l.sidecarPath)
	}
	return nil
}

// Close closes the underlying data file without a further fsync; each
// append has already been fsynced. The sidecar is already durable after
// every mutating call, so Close does not touch it.
func (l *Log) Close() error {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()
	return l.file.Close()
}

// Read seeks to the segment's recorded offset and returns exactly
// stored_len bytes, so the returned slice is exactly what was appended.
func (l *Log) Read(id model.SegmentId) ([]byte, error) {
	l.metaMu.RLock()
	rec, ok := l.segments[id]
	l.metaMu.RUnlock()
	if !ok {
		return nil, sperrors.NewCapsuleError(nil, sperrors.ErrorCodeNotFound, "segment not found").
			WithSegmentID(uint64(id))
	}

	buf := make([]byte, rec.StoredLen)

	l.fileMu.Lock()
	_, err := l.file.ReadAt(buf, rec.ByteOffsetInLog)
	l.fileMu.Unlock()
	if err != nil {
		return nil, sperrors.NewCapsuleError(err, sperrors.ErrorCodeIO, "failed to read segment bytes").
			WithSegmentID(uint64(id)).WithOffset(rec.ByteOffsetInLog)
	}
	return buf, nil
}

// GetMetadata returns the current segment record, or NotFound.
func (l *Log) GetMetadata(id model.SegmentId) (model.Segment, error) {
	l.metaMu.RLock()
	defer l.metaMu.RUnlock()
	rec, ok := l.segments[id]
	if !ok {
		return model.Segment{}, sperrors.NewCapsuleError(nil, sperrors.ErrorCodeNotFound, "segment not found").
			WithSegmentID(uint64(id))
	}
	return rec.toModel(), nil
}

// UpdateMetadata overwrites a segment's record in place and persists the
// sidecar atomically. Used by GC reconciliation to repair a drifted
// refcount, outside of the append/transaction path.
func (l *Log) UpdateMetadata(seg model.Segment) error {
	l.metaMu.Lock()
	defer l.metaMu.Unlock()

	if _, ok := l.segments[seg.ID]; !ok {
		return sperrors.NewCapsuleError(nil, sperrors.ErrorCodeNotFound, "segment not found").
			WithSegmentID(uint64(seg.ID))
	}
	l.segments[seg.ID] = fromModel(seg)
	return l.persistSidecar()
}

// IncrementRefcount performs a dedup-hit refcount bump, keeping Deduplicated
// in sync with the refcount.
func (l *Log) IncrementRefcount(id model.SegmentId) (model.Segment, error) {
	return l.mutateRefcount(id, 1)
}

// DecrementRefcount performs a capsule-delete refcount decrement, saturating
// at zero.
func (l *Log) DecrementRefcount(id model.SegmentId) (model.Segment, error) {
	return l.mutateRefcount(id, -1)
}

func (l *Log) mutateRefcount(id model.SegmentId, delta int64) (model.Segment, error) {
	l.metaMu.Lock()
	defer l.metaMu.Unlock()

	rec, ok := l.segments[id]
	if !ok {
		return model.Segment{}, sperrors.NewCapsuleError(nil, sperrors.ErrorCodeNotFound, "segment not found").
			WithSegmentID(uint64(id))
	}

	newCount := int64(rec.RefCount) + delta
	if newCount < 0 {
		newCount = 0
	}
	rec.RefCount = uint32(newCount)
	rec.Deduplicated = rec.RefCount > 1
	l.segments[id] = rec

	if err := l.persistSidecar(); err != nil {
		return model.Segment{}, err
	}
	return rec.toModel(), nil
}

// TouchAccessCount bumps the advisory access counter on read. Per
// open-question resolution this is never consulted by GC or eviction — it
// exists purely for operational visibility.
func (l *Log) TouchAccessCount(id model.SegmentId) {
	l.metaMu.Lock()
	defer l.metaMu.Unlock()
	rec, ok := l.segments[id]
	if !ok {
		return
	}
	rec.AccessCount++
	l.segments[id] = rec
	_ = l.persistSidecar()
}

// RemoveSegment deletes a segment's metadata entry; the data bytes remain
// in the log file, reclaimed only by future compaction (explicitly out of
// scope). Returns the record as it existed immediately before removal, or
// nil if it was already absent (idempotent, matching GC's re-entrancy
// requirement).
func (l *Log) RemoveSegment(id model.SegmentId) (*model.Segment, error) {
	l.metaMu.Lock()
	defer l.metaMu.Unlock()

	rec, ok := l.segments[id]
	if !ok {
		return nil, nil
	}
	delete(l.segments, id)
	if err := l.persistSidecar(); err != nil {
		return nil, err
	}
	seg := rec.toModel()
	return &seg, nil
}

// ListSegments returns a snapshot of every segment record currently held.
func (l *Log) ListSegments() []model.Segment {
	l.metaMu.RLock()
	defer l.metaMu.RUnlock()
	out := make([]model.Segment, 0, len(l.segments))
	for _, rec := range l.segments {
		out = append(out, rec.toModel())
	}
	return out
}

// ListSegmentIds returns a snapshot of every segment id currently held.
func (l *Log) ListSegmentIds() []model.SegmentId {
	l.metaMu.RLock()
	defer l.metaMu.RUnlock()
	out := make([]model.SegmentId, 0, len(l.segments))
	for id := range l.segments {
		out = append(out, id)
	}
	return out
}
