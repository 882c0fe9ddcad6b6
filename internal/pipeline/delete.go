package pipeline

import (
	"github.com/google/uuid"

	"github.com/iamNilotpal/capsule/internal/model"
)

// DeleteCapsule removes a capsule record and decrements the refcount of
// every segment it referenced. A segment whose refcount reaches zero is
// deregistered from the content index and removed immediately — the
// background collector's Sweep only has to catch segments orphaned by a
// crash between these two steps, not the common case. The catalog record
// is removed first, so a crash after that point just leaves unreachable
// segments for reconciliation to find.
func (p *Pipeline) DeleteCapsule(id uuid.UUID) error {
	capRec, err := p.cat.DeleteCapsule(id)
	if err != nil {
		return err
	}

	for _, segID := range capRec.Segments {
		seg, err := p.log.DecrementRefcount(segID)
		if err != nil {
			p.lg.Warnw("failed to decrement refcount for deleted capsule's segment",
				"capsuleId", id.String(), "segmentId", uint64(segID), "error", err)
			continue
		}
		if seg.RefCount != 0 {
			continue
		}
		p.reclaimSegment(seg)
	}

	return nil
}

// reclaimSegment deregisters a zero-refcount segment's content hash (if
// any) and removes its metadata. Failures are logged, not returned — a
// segment left behind here is still reachable by a later GC sweep.
func (p *Pipeline) reclaimSegment(seg model.Segment) {
	if seg.HasContentHash {
		if _, err := p.cat.DeregisterContent(seg.ContentHash.String(), seg.ID); err != nil {
			p.lg.Warnw("failed to deregister content hash during delete",
				"segmentId", uint64(seg.ID), "error", err)
			return
		}
	}
	if _, err := p.log.RemoveSegment(seg.ID); err != nil {
		p.lg.Warnw("failed to remove reclaimed segment",
			"segmentId", uint64(seg.ID), "error", err)
	}
}
