// Package gc implements the reference-counted garbage collector: a sweep
// that reclaims segments whose refcount has dropped to zero, plus the
// startup reconciliation pass that recomputes expected refcounts from the
// catalog before sweeping. Grounded on
// original_source/crates/capsule-registry/src/gc.rs's GarbageCollector and
// on WritePipeline::reconcile_refcounts in pipeline.rs, translated from a
// registry+nvram pair into the Go engine's catalog+segmentlog pair.
package gc

import (
	"go.uber.org/zap"

	"github.com/iamNilotpal/capsule/internal/catalog"
	"github.com/iamNilotpal/capsule/internal/model"
	"github.com/iamNilotpal/capsule/internal/segmentlog"
	sperrors "github.com/iamNilotpal/capsule/pkg/errors"
)

// Collector sweeps zero-refcount segments out of the log and reconciles
// refcounts against the catalog's current capsule set. It holds no state
// of its own beyond its two collaborators — safe to construct fresh on
// every sweep.
type Collector struct {
	log *segmentlog.Log
	cat *catalog.Catalog
	lg  *zap.SugaredLogger
}

// New builds a Collector over an already-open log and catalog.
func New(log *segmentlog.Log, cat *catalog.Catalog, lg *zap.SugaredLogger) *Collector {
	return &Collector{log: log, cat: cat, lg: lg}
}

// Sweep reclaims every segment with RefCount == 0: it deregisters the
// segment's content-hash mapping (if it has one) so a future write never
// dedups against a segment about to disappear, then removes the segment's
// metadata entry. The underlying data bytes are left in place — reclaiming
// log-file space is compaction's job, explicitly out of scope. Sweep is
// idempotent and safe to call repeatedly: a segment already removed by a
// concurrent sweep is simply skipped.
func (g *Collector) Sweep() (int, error) {
	segments := g.log.ListSegments()

	reclaimed := 0
	for _, seg := range segments {
		if seg.RefCount != 0 {
			continue
		}
		removed, err := g.reclaimSegment(seg)
		if err != nil {
			return reclaimed, err
		}
		if removed {
			reclaimed++
		}
	}

	if reclaimed > 0 {
		g.lg.Infow("garbage collection swept segments", "reclaimed", reclaimed)
	}
	return reclaimed, nil
}

func (g *Collector) reclaimSegment(seg model.Segment) (bool, error) {
	if seg.HasContentHash {
		if _, err := g.cat.DeregisterContent(seg.ContentHash.String(), seg.ID); err != nil {
			return false, err
		}
	}

	removed, err := g.log.RemoveSegment(seg.ID)
	if err != nil {
		return false, err
	}
	if removed == nil {
		// Already gone — another sweep raced us to it. Not an error.
		return false, nil
	}
	return true, nil
}

// Reconcile recomputes each segment's expected refcount from the catalog's
// current capsules (a segment's expected count is how many times it occurs
// across all capsules' segment lists), repairs any segment whose stored
// RefCount has drifted from that expectation, detects the one divergence GC
// cannot self-heal (a segment no capsule references, stored with a nonzero
// RefCount, that the content index still points at — repairing it to zero
// would let a future write dedup onto a segment that is about to be swept),
// and finally runs Sweep. A segment already stored at RefCount == 0 is not
// checked against the content index here; Sweep deregisters and removes it. Intended to run once at
// engine startup, before the store accepts writes.
func (g *Collector) Reconcile() (int, error) {
	expected := make(map[model.SegmentId]uint32, 1024)
	for _, capRec := range g.cat.ListCapsules() {
		for _, segID := range capRec.Segments {
			expected[segID]++
		}
	}

	for _, seg := range g.log.ListSegments() {
		want := expected[seg.ID]
		if seg.RefCount == want {
			continue
		}

		if want == 0 {
			if seg.HasContentHash {
				if id, ok := g.cat.LookupContent(seg.ContentHash.String()); ok && id == seg.ID {
					return 0, sperrors.NewCatalogError(
						nil, sperrors.ErrorCodeInvariantViolated,
						"content index still points at a segment with no referencing capsules",
					).WithContentHash(seg.ContentHash.String()).WithOperation("Reconcile")
				}
			}
		}

		repaired := seg.WithRefCount(want)
		if err := g.log.UpdateMetadata(repaired); err != nil {
			return 0, err
		}
		g.lg.Warnw("repaired divergent segment refcount",
			"segmentId", uint64(seg.ID), "had", seg.RefCount, "expected", want)
	}

	return g.Sweep()
}
