package options

import "time"

// CompressionKind selects the compression algorithm family for a Policy.
type CompressionKind string

const (
	CompressionNone CompressionKind = "none"
	CompressionLZ4  CompressionKind = "lz4"
	CompressionZstd CompressionKind = "zstd"
)

// EncryptionKind selects whether a Policy requests at-rest encryption.
type EncryptionKind string

const (
	EncryptionDisabled  EncryptionKind = "disabled"
	EncryptionXtsAes256 EncryptionKind = "xts_aes256"
)

// LZ4LevelMin and LZ4LevelMax bound the accepted LZ4 compression level;
// out-of-range values are clamped by Normalize, and the write pipeline logs
// a warning when that happens.
const (
	LZ4LevelMin = 1
	LZ4LevelMax = 16
)

// ZstdLevelMin and ZstdLevelMax bound the accepted Zstd compression level.
const (
	ZstdLevelMin = -5
	ZstdLevelMax = 22
)

// Compression describes the compression half of a Policy: which codec, and
// at what level. Level is ignored when Kind is CompressionNone.
type Compression struct {
	Kind  CompressionKind `json:"kind"`
	Level int             `json:"level"`
}

// Encryption describes the encryption half of a Policy. KeyVersion is
// optional: a nil value means "use the key manager's current version at
// write time"; a non-nil value pins the write to a specific version (used
// mainly by tests exercising rotation).
type Encryption struct {
	Kind       EncryptionKind `json:"kind"`
	KeyVersion *uint32        `json:"keyVersion,omitempty"`
}

// Policy is the per-write configuration attached to every WriteCapsule call:
// compression, dedup, and encryption choices, plus advisory metadata that
// the core persists verbatim with the capsule and never interprets.
type Policy struct {
	Compression Compression `json:"compression"`
	Dedupe      bool        `json:"dedupe"`
	Encryption  Encryption  `json:"encryption"`

	// CompactInterval is an advisory hint for out-of-core compaction
	// tooling; the core never reads it.
	CompactInterval time.Duration `json:"compactInterval,omitempty"`

	// ReplicationHints is an advisory hint for out-of-core replication
	// tooling; the core never reads it.
	ReplicationHints []string `json:"replicationHints,omitempty"`

	// Tags lets callers stash arbitrary caller-supplied metadata on a
	// capsule without the core needing to know its shape. Persisted
	// verbatim alongside the capsule record.
	Tags map[string]string `json:"tags,omitempty"`
}

// DefaultPolicy returns a Policy with LZ4 level 1 compression, dedup
// enabled, and encryption disabled — a reasonable default for ad hoc writes.
func DefaultPolicy() Policy {
	return Policy{
		Compression: Compression{Kind: CompressionLZ4, Level: 1},
		Dedupe:      true,
		Encryption:  Encryption{Kind: EncryptionDisabled},
	}
}

// Normalize clamps compression levels into their valid ranges rather than
// rejecting the policy outright. It returns the normalized policy and whether any field
// was clamped (useful for callers that want to log a warning).
func (p Policy) Normalize() (Policy, bool) {
	clamped := false
	switch p.Compression.Kind {
	case CompressionLZ4:
		if p.Compression.Level < LZ4LevelMin {
			p.Compression.Level = LZ4LevelMin
			clamped = true
		} else if p.Compression.Level > LZ4LevelMax {
			p.Compression.Level = LZ4LevelMax
			clamped = true
		}
	case CompressionZstd:
		if p.Compression.Level < ZstdLevelMin {
			p.Compression.Level = ZstdLevelMin
			clamped = true
		} else if p.Compression.Level > ZstdLevelMax {
			p.Compression.Level = ZstdLevelMax
			clamped = true
		}
	}
	return p, clamped
}
