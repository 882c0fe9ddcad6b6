package pipeline

import (
	"github.com/google/uuid"

	"github.com/iamNilotpal/capsule/internal/crypto"
	"github.com/iamNilotpal/capsule/internal/model"
	sperrors "github.com/iamNilotpal/capsule/pkg/errors"
)

// ReadCapsule runs the read pipeline: look up the capsule, then for every
// segment in plaintext order, read its raw bytes, verify and decrypt if
// encrypted, decompress per its recorded algorithm, and concatenate.
func (p *Pipeline) ReadCapsule(id uuid.UUID) ([]byte, error) {
	capRec, err := p.cat.Lookup(id)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, capRec.PlaintextSize)
	for _, segID := range capRec.Segments {
		plain, err := p.readSegment(segID)
		if err != nil {
			return nil, err
		}
		out = append(out, plain...)
	}

	return out, nil
}

// ReadRange returns the [offset, offset+len) slice of a capsule's
// plaintext. It reads the whole capsule and slices, as the reference
// implementation does — per-segment partial reads are a valid future
// optimization but are not required for correctness.
func (p *Pipeline) ReadRange(id uuid.UUID, offset uint64, length int) ([]byte, error) {
	capRec, err := p.cat.Lookup(id)
	if err != nil {
		return nil, err
	}
	if offset+uint64(length) > capRec.PlaintextSize {
		return nil, sperrors.NewValidationError(nil, sperrors.ErrorCodeInvalidInput,
			"read range extends beyond capsule boundary").
			WithField("offset").WithRule("within_bounds").
			WithProvided(offset + uint64(length)).WithExpected(capRec.PlaintextSize)
	}

	full, err := p.ReadCapsule(id)
	if err != nil {
		return nil, err
	}
	return full[offset : offset+uint64(length)], nil
}

// readSegment inverts one segment's write-time processing: read raw bytes,
// verify + decrypt if encrypted, decompress per the recorded algorithm.
func (p *Pipeline) readSegment(id model.SegmentId) ([]byte, error) {
	raw, err := p.log.Read(id)
	if err != nil {
		return nil, err
	}
	seg, err := p.log.GetMetadata(id)
	if err != nil {
		return nil, err
	}
	p.log.TouchAccessCount(id)

	payload := raw
	if seg.Encryption.Encrypted {
		if p.keys == nil {
			return nil, sperrors.NewCryptoError(nil, sperrors.ErrorCodeKeyError,
				"segment is encrypted but no master key was configured").WithKeyVersion(seg.Encryption.KeyVersion)
		}
		keyPair, err := p.keys.GetKey(seg.Encryption.KeyVersion)
		if err != nil {
			return nil, err
		}

		meta := crypto.Metadata{
			Encrypted:         seg.Encryption.Encrypted,
			EncryptionVersion: seg.Encryption.EncryptionVersion,
			KeyVersion:        seg.Encryption.KeyVersion,
			TweakNonce:        seg.Encryption.TweakNonce,
			CiphertextLen:     seg.Encryption.CiphertextLen,
			IntegrityTag:      seg.Encryption.IntegrityTag,
		}
		if !p.crypt.VerifyMAC(raw, keyPair, meta) {
			return nil, sperrors.NewCryptoError(nil, sperrors.ErrorCodeIntegrityFailure,
				"segment MAC verification failed").WithKeyVersion(seg.Encryption.KeyVersion)
		}
		payload, err = p.crypt.DecryptSegment(raw, keyPair, meta)
		if err != nil {
			return nil, err
		}
	}

	if !seg.Compressed {
		return payload, nil
	}
	return p.comp.DecompressSegment(payload, seg.CompressionAlgo)
}
