package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/iamNilotpal/capsule/internal/catalog"
	"github.com/iamNilotpal/capsule/internal/model"
	"github.com/iamNilotpal/capsule/internal/segmentlog"
	sperrors "github.com/iamNilotpal/capsule/pkg/errors"
	"github.com/iamNilotpal/capsule/pkg/options"
)

// WriteCapsule runs the sequential write pipeline: chunk, compress,
// hash, encrypt, dedup, and append each segment in plaintext order under a
// single log transaction, then register the write's catalog effects. On
// any failure the capsule is not created and no partial refcount change
// survives — see the per-step compensation calls below, which undo exactly
// the side effects already committed before the failing step, even though
// this variant has no concurrency to reorder.
func (p *Pipeline) WriteCapsule(data []byte, policy options.Policy) (uuid.UUID, error) {
	policy, clamped := policy.Normalize()
	if clamped {
		p.lg.Warnw("compression level out of range; clamped",
			"kind", string(policy.Compression.Kind), "level", policy.Compression.Level)
	}
	capsuleID := uuid.New()

	segmentChunks := chunks(data)
	if len(segmentChunks) == 0 {
		capRec := model.Capsule{
			ID:            capsuleID,
			PlaintextSize: uint64(len(data)),
			Segments:      nil,
			CreatedAt:     time.Now(),
			Policy:        policy,
		}
		if err := p.cat.CreateCapsuleWithSegments(capRec); err != nil {
			return uuid.Nil, err
		}
		return capsuleID, nil
	}

	txn := p.log.BeginTransaction()

	segmentIDs := make([]model.SegmentId, 0, len(segmentChunks))
	persistentHits := make([]model.SegmentId, 0, 4)
	newlyHashed := make([]hashedSegment, 0, len(segmentChunks))
	var dedupedBytes uint64

	rollback := func(err error) (uuid.UUID, error) {
		_ = txn.Rollback()
		decrementReverse(p.log, persistentHits)
		return uuid.Nil, err
	}

	for idx, chunk := range segmentChunks {
		prep, err := p.prepareSegment(idx, chunk, policy)
		if err != nil {
			return rollback(err)
		}

		outcome, err := p.commitPrepared(txn, policy, prep)
		if err != nil {
			return rollback(err)
		}

		segmentIDs = append(segmentIDs, outcome.segmentID)
		dedupedBytes += outcome.dedupedBytes
		if outcome.persistentHit {
			persistentHits = append(persistentHits, outcome.segmentID)
		}
		if outcome.newHash != nil {
			newlyHashed = append(newlyHashed, *outcome.newHash)
		}
	}

	if err := txn.Commit(); err != nil {
		decrementReverse(p.log, persistentHits)
		return uuid.Nil, err
	}

	if err := registerNewHashes(p.log, p.cat, newlyHashed); err != nil {
		decrementReverse(p.log, persistentHits)
		return uuid.Nil, err
	}

	capRec := model.Capsule{
		ID:            capsuleID,
		PlaintextSize: uint64(len(data)),
		Segments:      segmentIDs,
		CreatedAt:     time.Now(),
		Policy:        policy,
		DedupedBytes:  dedupedBytes,
	}
	if err := p.cat.CreateCapsuleWithSegments(capRec); err != nil {
		unregisterNewHashes(p.log, p.cat, newlyHashed)
		decrementReverse(p.log, persistentHits)
		return uuid.Nil, err
	}

	return capsuleID, nil
}

// hashedSegment pairs a newly-written segment's content hash with its id,
// for the catalog registration step that follows a successful commit.
type hashedSegment struct {
	hash string
	id   model.SegmentId
}

// decrementReverse undoes every persistent dedup-hit refcount increment, in
// reverse order. Errors are swallowed deliberately: this already runs on a
// failure path, and a second failure here must not mask the original error.
func decrementReverse(log *segmentlog.Log, hits []model.SegmentId) {
	for i := len(hits) - 1; i >= 0; i-- {
		_, _ = log.DecrementRefcount(hits[i])
	}
}

// registerNewHashes records every newly-written segment's content hash in
// the catalog's dedup index, after the log transaction that created them
// has committed.
func registerNewHashes(log *segmentlog.Log, cat *catalog.Catalog, hashes []hashedSegment) error {
	registered := make([]hashedSegment, 0, len(hashes))
	for _, h := range hashes {
		if err := cat.RegisterContent(h.hash, h.id); err != nil {
			for _, r := range registered {
				_, _ = cat.DeregisterContent(r.hash, r.id)
			}
			for _, h := range hashes {
				_, _ = log.RemoveSegment(h.id)
			}
			return sperrors.NewCatalogError(err, sperrors.ErrorCodeIO, "failed to register content hash during write").
				WithContentHash(h.hash)
		}
		registered = append(registered, h)
	}
	return nil
}

// unregisterNewHashes reverses registerNewHashes's effect when a later step
// (capsule creation) fails after hashes were already registered.
func unregisterNewHashes(log *segmentlog.Log, cat *catalog.Catalog, hashes []hashedSegment) {
	for _, h := range hashes {
		_, _ = cat.DeregisterContent(h.hash, h.id)
		_, _ = log.RemoveSegment(h.id)
	}
}
