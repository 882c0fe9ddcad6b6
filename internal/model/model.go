// Package model defines the storage-engine's shared domain types — the
// data that every component (segment log, catalog, compression,
// encryption, pipeline, GC) reads or writes. Keeping these in one package
// free of import cycles lets every layer agree on one on-disk shape.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/iamNilotpal/capsule/internal/hasher"
	"github.com/iamNilotpal/capsule/pkg/options"
)

// SegmentId is a monotonically allocated identifier, unique per storage instance.
type SegmentId uint64

// EncryptionMetadata carries everything needed to verify and decrypt a
// segment. All fields are present together (encrypted) or all absent.
type EncryptionMetadata struct {
	Encrypted         bool
	EncryptionVersion uint16
	KeyVersion        uint32
	TweakNonce        [16]byte
	CiphertextLen     uint32
	IntegrityTag      [16]byte
}

// Segment is the metadata record the sidecar persists for one logical unit
// of storage: the target of compression, hashing, encryption, and dedup.
type Segment struct {
	ID               SegmentId
	ByteOffsetInLog  int64
	StoredLen        uint32
	Compressed       bool
	CompressionAlgo  string // "identity" | "lz4:<lvl>" | "zstd:<lvl>"
	HasContentHash   bool
	ContentHash      hasher.ContentHash
	RefCount         uint32
	Deduplicated     bool
	AccessCount      uint32
	Encryption       EncryptionMetadata
}

// WithRefCount returns a copy of the segment with RefCount and the derived
// Deduplicated flag updated together, so the two can never drift apart
// (deduplicated is kept equal to ref_count > 1).
func (s Segment) WithRefCount(count uint32) Segment {
	s.RefCount = count
	s.Deduplicated = count > 1
	return s
}

// Capsule is an immutable, ordered sequence of segments representing one
// logical blob. Created exactly once by the write pipeline; thereafter
// read-only until deletion removes the whole record.
type Capsule struct {
	ID            uuid.UUID
	PlaintextSize uint64
	Segments      []SegmentId
	CreatedAt     time.Time
	Policy        options.Policy
	DedupedBytes  uint64
}
