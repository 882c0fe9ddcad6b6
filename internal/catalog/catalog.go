// Package catalog implements the capsule catalog: the persistent map from
// CapsuleId to Capsule, the content-hash index that makes dedup possible,
// and the segment-id allocator. Modeled on the original internal/index
// package — an RWMutex-guarded map with an atomic closed flag — generalized
// from a single key→pointer table into the three related tables a capsule
// store needs, since it has to relate ids, hashes, and a monotonic counter
// rather than just one key space.
package catalog

import (
	"bytes"
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	natomic "github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/iamNilotpal/capsule/internal/model"
	sperrors "github.com/iamNilotpal/capsule/pkg/errors"
	"github.com/iamNilotpal/capsule/pkg/filesys"
)

const catalogFileName = "catalog.meta"

// Catalog is the single-writer/many-reader store of capsule records, the
// content-hash→segment index, and the segment-id allocator. Every mutation
// re-serializes and atomically replaces the whole file before returning, so
// "writer-durable" holds even though the encoding is a single gob blob
// rather than an incremental log.
type Catalog struct {
	mu   sync.RWMutex
	path string

	capsules      map[uuid.UUID]model.Capsule
	contentIndex  map[string]model.SegmentId
	nextSegmentID model.SegmentId

	closed atomic.Bool
	log    *zap.SugaredLogger
}

// Open loads an existing catalog file at dir/catalog.meta or bootstraps a
// fresh one with the segment-id allocator starting at 1.
func Open(ctx context.Context, dir string, log *zap.SugaredLogger) (*Catalog, error) {
	if err := filesys.CreateDir(dir, 0o755, true); err != nil {
		return nil, sperrors.NewCatalogError(err, sperrors.ErrorCodeIO, "failed to create catalog directory").
			WithOperation("Open")
	}

	c := &Catalog{
		path:          filepath.Join(dir, catalogFileName),
		capsules:      make(map[uuid.UUID]model.Capsule, 256),
		contentIndex:  make(map[string]model.SegmentId, 1024),
		nextSegmentID: 1,
		log:           log,
	}

	raw, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Infow("no existing catalog found, bootstrapping fresh", "path", c.path)
			return c, nil
		}
		return nil, sperrors.NewCatalogError(err, sperrors.ErrorCodeIO, "failed to read catalog file").
			WithOperation("Open")
	}
	if len(raw) == 0 {
		return c, nil
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&snap); err != nil {
		return nil, sperrors.NewCatalogCorruptionError(err)
	}

	if snap.Capsules != nil {
		c.capsules = snap.Capsules
	}
	if snap.ContentIndex != nil {
		c.contentIndex = snap.ContentIndex
	}
	if snap.NextSegmentID > 0 {
		c.nextSegmentID = snap.NextSegmentID
	}

	log.Infow("catalog loaded", "path", c.path, "capsules", len(c.capsules), "contentEntries", len(c.contentIndex))
	return c, nil
}

// persist must be called with mu held (read or write doesn't matter for the
// snapshot copy, but callers always hold it for write here).
func (c *Catalog) persist() error {
	snap := snapshot{
		Capsules:      c.capsules,
		NextSegmentID: c.nextSegmentID,
		ContentIndex:  c.contentIndex,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return sperrors.NewCatalogError(err, sperrors.ErrorCodeIO, "failed to encode catalog snapshot").
			WithOperation("Persist")
	}
	if err := natomic.WriteFile(c.path, &buf); err != nil {
		return sperrors.NewCatalogError(err, sperrors.ErrorCodeIO, "failed to persist catalog file").
			WithOperation("Persist")
	}
	return nil
}

// Close marks the catalog closed. The flag is not consulted by any other
// method: lookups and mutations after Close still run.
func (c *Catalog) Close() error {
	c.closed.Store(true)
	return nil
}

// AllocateSegment returns a fresh, monotonically increasing segment id and
// persists the new high-water mark before returning, so a crash can never
// cause an id to be reused.
func (c *Catalog) AllocateSegment() (model.SegmentId, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSegmentID
	c.nextSegmentID++
	if err := c.persist(); err != nil {
		c.nextSegmentID--
		return 0, err
	}
	return id, nil
}

// Lookup returns the capsule record for id, or NotFound.
func (c *Catalog) Lookup(id uuid.UUID) (model.Capsule, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	capRec, ok := c.capsules[id]
	if !ok {
		return model.Capsule{}, sperrors.NewCapsuleNotFoundError(id.String())
	}
	return capRec, nil
}

// ListCapsules returns a snapshot of every capsule record.
func (c *Catalog) ListCapsules() []model.Capsule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Capsule, 0, len(c.capsules))
	for _, capRec := range c.capsules {
		out = append(out, capRec)
	}
	return out
}

// CreateCapsuleWithSegments atomically inserts a new, fully-formed capsule
// record. The id must not already exist — a collision is astronomically
// improbable for a random UUIDv4 and is treated as fatal.
func (c *Catalog) CreateCapsuleWithSegments(capRec model.Capsule) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.capsules[capRec.ID]; exists {
		return sperrors.NewCapsuleCollisionError(capRec.ID.String())
	}

	c.capsules[capRec.ID] = capRec
	if err := c.persist(); err != nil {
		delete(c.capsules, capRec.ID)
		return err
	}
	return nil
}

// DeleteCapsule removes the capsule record atomically and returns the
// record as it existed immediately before removal. Segment refcount
// decrements are the caller's responsibility — on delete the pipeline
// removes this record first and then decrements the segments' refcounts.
func (c *Catalog) DeleteCapsule(id uuid.UUID) (model.Capsule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	capRec, ok := c.capsules[id]
	if !ok {
		return model.Capsule{}, sperrors.NewCapsuleNotFoundError(id.String())
	}

	delete(c.capsules, id)
	if err := c.persist(); err != nil {
		c.capsules[id] = capRec
		return model.Capsule{}, err
	}
	return capRec, nil
}

// LookupContent returns the segment id registered for a content hash, if
// any — the core of persistent (cross-write) dedup.
func (c *Catalog) LookupContent(hash string) (model.SegmentId, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.contentIndex[hash]
	return id, ok
}

// RegisterContent maps a content hash to the segment that first stored it.
func (c *Catalog) RegisterContent(hash string, id model.SegmentId) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, existed := c.contentIndex[hash]
	c.contentIndex[hash] = id
	if err := c.persist(); err != nil {
		if existed {
			c.contentIndex[hash] = prev
		} else {
			delete(c.contentIndex, hash)
		}
		return err
	}
	return nil
}

// DeregisterContent removes a content-hash mapping, but only if it still
// points at the given segment id — callers use this during compensation
// and GC, where a stale pointer to a different (newer) segment must not be
// clobbered. Returns whether a removal actually happened.
func (c *Catalog) DeregisterContent(hash string, id model.SegmentId) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.contentIndex[hash]
	if !ok || current != id {
		return false, nil
	}

	delete(c.contentIndex, hash)
	if err := c.persist(); err != nil {
		c.contentIndex[hash] = current
		return false, err
	}
	return true, nil
}

// AddDedupedBytes increments a capsule's dedup-savings counter, kept equal
// to the sum of stored_len across the capsule's dedup-hit segments at
// write time.
func (c *Catalog) AddDedupedBytes(id uuid.UUID, n uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	capRec, ok := c.capsules[id]
	if !ok {
		return sperrors.NewCapsuleNotFoundError(id.String())
	}

	prev := capRec.DedupedBytes
	capRec.DedupedBytes += n
	c.capsules[id] = capRec
	if err := c.persist(); err != nil {
		capRec.DedupedBytes = prev
		c.capsules[id] = capRec
		return err
	}
	return nil
}
