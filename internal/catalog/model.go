package catalog

import (
	"github.com/google/uuid"

	"github.com/iamNilotpal/capsule/internal/model"
)

// snapshot is the gob-serialized shape of the catalog file:
// capsule records, the content-hash index, and the segment-id allocator's
// high-water mark, all replaced atomically on every mutation.
type snapshot struct {
	Capsules      map[uuid.UUID]model.Capsule
	NextSegmentID model.SegmentId
	ContentIndex  map[string]model.SegmentId
}
