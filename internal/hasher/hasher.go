// Package hasher computes the BLAKE3-32 content hash used for
// deduplication and as the source of the encryption tweak. It is a small,
// dedicated package by design: every other component depends on content
// hashing, and none of them should need to know which hash function or
// library backs it.
package hasher

import (
	"crypto/subtle"
	"encoding/hex"

	"lukechampine.com/blake3"

	sperrors "github.com/iamNilotpal/capsule/pkg/errors"
)

// Size is the length in bytes of a content hash.
const Size = 32

var errShortHash = sperrors.NewValidationError(
	nil, sperrors.ErrorCodeInvalidInput, "decoded content hash is not 32 bytes",
).WithField("content_hash").WithRule("length")

// ContentHash is the 32-byte BLAKE3 digest of a segment's post-compression
// bytes. It is hashed post-compression deliberately: this preserves
// deduplication while admitting different compression policies across
// capsules, since a dedup hit only happens across writes that produced the
// same compressed bytes in the first place.
type ContentHash [Size]byte

// Sum computes the content hash of data.
func Sum(data []byte) ContentHash {
	var h ContentHash
	digest := blake3.Sum256(data)
	copy(h[:], digest[:])
	return h
}

// String renders the hash as lowercase hex, the canonical form used for
// catalog indexing and persistence.
func (h ContentHash) String() string {
	return hex.EncodeToString(h[:])
}

// Equal performs a constant-time comparison between two content hashes, as
// required for deterministic dedup and the MAC-tamper-detection
// property: timing must not leak how many leading bytes matched.
func (h ContentHash) Equal(other ContentHash) bool {
	return subtle.ConstantTimeCompare(h[:], other[:]) == 1
}

// IsZero reports whether h is the zero hash, used to distinguish an unset
// optional content_hash field (segments written with dedupe disabled never
// populate it).
func (h ContentHash) IsZero() bool {
	var zero ContentHash
	return h.Equal(zero)
}

// Tweak returns the first 16 bytes of the hash, the deterministic XTS tweak
// derived from content per the encryption engine's contract.
func (h ContentHash) Tweak() [16]byte {
	var tweak [16]byte
	copy(tweak[:], h[:16])
	return tweak
}

// ParseHex decodes a lowercase-hex-encoded content hash as persisted in the
// segment sidecar and catalog.
func ParseHex(s string) (ContentHash, error) {
	var h ContentHash
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(decoded) != Size {
		return h, errShortHash
	}
	copy(h[:], decoded)
	return h, nil
}
