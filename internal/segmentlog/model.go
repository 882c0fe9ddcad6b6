package segmentlog

import (
	"github.com/iamNilotpal/capsule/internal/hasher"
	"github.com/iamNilotpal/capsule/internal/model"
)

// Record is the sidecar's on-disk representation of one segment: the data
// file's byte range it covers, plus every field the read pipeline and GC
// need without re-reading the data file. It is the gob-serialized unit
// persisted in the "segments.meta" sidecar.
type Record struct {
	ID              model.SegmentId
	ByteOffsetInLog int64
	StoredLen       uint32
	Compressed      bool
	CompressionAlgo string
	HasContentHash  bool
	ContentHashHex  string
	RefCount        uint32
	Deduplicated    bool
	AccessCount     uint32
	Encryption      model.EncryptionMetadata
}

// toModel converts a sidecar record into the shared model.Segment shape the
// rest of the engine operates on.
func (r Record) toModel() model.Segment {
	s := model.Segment{
		ID:              r.ID,
		ByteOffsetInLog: r.ByteOffsetInLog,
		StoredLen:       r.StoredLen,
		Compressed:      r.Compressed,
		CompressionAlgo: r.CompressionAlgo,
		HasContentHash:  r.HasContentHash,
		RefCount:        r.RefCount,
		Deduplicated:    r.Deduplicated,
		AccessCount:     r.AccessCount,
		Encryption:      r.Encryption,
	}
	if r.HasContentHash {
		if h, err := hasher.ParseHex(r.ContentHashHex); err == nil {
			s.ContentHash = h
		}
	}
	return s
}

func fromModel(s model.Segment) Record {
	r := Record{
		ID:              s.ID,
		ByteOffsetInLog: s.ByteOffsetInLog,
		StoredLen:       s.StoredLen,
		Compressed:      s.Compressed,
		CompressionAlgo: s.CompressionAlgo,
		HasContentHash:  s.HasContentHash,
		RefCount:        s.RefCount,
		Deduplicated:    s.Deduplicated,
		AccessCount:     s.AccessCount,
		Encryption:      s.Encryption,
	}
	if s.HasContentHash {
		r.ContentHashHex = s.ContentHash.String()
	}
	return r
}
