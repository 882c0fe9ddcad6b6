package pipeline

import (
	"github.com/iamNilotpal/capsule/internal/model"
	"github.com/iamNilotpal/capsule/pkg/options"
)

// commitOutcome describes what happened to one prepared segment once it
// reached the front of the commit queue: which segment id the capsule
// should reference, how many bytes of dedup savings it contributed, and
// whether it was a persistent-catalog dedup hit (tracked separately so a
// later failure can decrement exactly these refcounts, in reverse order).
type commitOutcome struct {
	segmentID     model.SegmentId
	dedupedBytes  uint64
	persistentHit bool
	newHash       *hashedSegment
}

// commitPrepared runs step 4/5/6 of the per-segment write procedure (the
// dedup decision and segment-list bookkeeping) for one already-prepared
// segment, against a shared in-flight transaction. Both the sequential and
// concurrent write variants call this once per segment, in plaintext
// order, so the dedup decision (staged → persistent → new) always sees a
// consistent view of what this write has committed so far.
func (p *Pipeline) commitPrepared(txn *txnAppender, policy options.Policy, pr prepared) (commitOutcome, error) {
	if policy.Dedupe {
		if staged, ok := txn.PendingSegment(pr.contentHash.String()); ok {
			seg, err := txn.IncrementStagedRefcount(staged.ID)
			if err != nil {
				return commitOutcome{}, err
			}
			return commitOutcome{segmentID: seg.ID, dedupedBytes: uint64(seg.StoredLen)}, nil
		}

		if existingID, ok := p.cat.LookupContent(pr.contentHash.String()); ok {
			seg, err := p.log.IncrementRefcount(existingID)
			if err != nil {
				return commitOutcome{}, err
			}
			return commitOutcome{
				segmentID:     existingID,
				dedupedBytes:  uint64(seg.StoredLen),
				persistentHit: true,
			}, nil
		}
	}

	segID, err := p.cat.AllocateSegment()
	if err != nil {
		return commitOutcome{}, err
	}

	seg := model.Segment{
		ID:              segID,
		Compressed:      pr.compResult.Compressed,
		CompressionAlgo: pr.compResult.Algorithm,
		RefCount:        1,
	}
	if policy.Dedupe {
		seg.HasContentHash = true
		seg.ContentHash = pr.contentHash
	}
	if pr.encrypted {
		seg.Encryption = pr.encMeta
	}

	if _, err := txn.Append(seg, pr.payload); err != nil {
		return commitOutcome{}, err
	}

	outcome := commitOutcome{segmentID: segID}
	if policy.Dedupe {
		outcome.newHash = &hashedSegment{hash: pr.contentHash.String(), id: segID}
	}
	return outcome, nil
}

// txnAppender is the subset of *segmentlog.Txn that commitPrepared needs —
// named separately so this file doesn't have to import segmentlog just for
// a type alias.
type txnAppender = txnLike

// txnLike mirrors *segmentlog.Txn's append/staged-dedup surface.
type txnLike interface {
	Append(seg model.Segment, data []byte) (model.Segment, error)
	PendingSegment(hash string) (model.Segment, bool)
	IncrementStagedRefcount(id model.SegmentId) (model.Segment, error)
}
