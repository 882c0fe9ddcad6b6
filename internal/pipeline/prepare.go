package pipeline

import (
	"github.com/iamNilotpal/capsule/internal/compress"
	"github.com/iamNilotpal/capsule/internal/hasher"
	"github.com/iamNilotpal/capsule/internal/model"
	sperrors "github.com/iamNilotpal/capsule/pkg/errors"
	"github.com/iamNilotpal/capsule/pkg/options"
)

// prepared is the outcome of steps 1-3 of the per-segment write procedure
// (compress, hash, encrypt) for one plaintext chunk — everything that can
// be computed without touching the log or catalog, and therefore safe to
// run off the write's own goroutine in the concurrent variant.
type prepared struct {
	index       int
	contentHash hasher.ContentHash
	payload     []byte
	compResult  compress.Result
	encrypted   bool
	encMeta     model.EncryptionMetadata
}

// prepareSegment runs compression, content hashing, and (if the policy
// requests it) encryption for one plaintext chunk. It performs no I/O
// against the log or catalog — pure CPU work, safe to call from any
// goroutine.
func (p *Pipeline) prepareSegment(index int, chunk []byte, policy options.Policy) (prepared, error) {
	compressed, compResult, err := p.comp.CompressSegment(chunk, policy.Compression)
	if err != nil {
		return prepared{}, err
	}

	contentHash := hasher.Sum(compressed)

	out := prepared{
		index:       index,
		contentHash: contentHash,
		payload:     compressed,
		compResult:  compResult,
	}

	if policy.Encryption.Kind != options.EncryptionXtsAes256 {
		return out, nil
	}
	if p.keys == nil {
		return prepared{}, sperrors.NewCryptoError(nil, sperrors.ErrorCodeKeyError,
			"write policy requests encryption but no master key was configured")
	}

	keyVersion := p.keys.CurrentVersion()
	if policy.Encryption.KeyVersion != nil {
		keyVersion = *policy.Encryption.KeyVersion
	}
	keyPair, err := p.keys.GetKey(keyVersion)
	if err != nil {
		return prepared{}, err
	}

	tweak := contentHash.Tweak()
	ciphertext, meta, err := p.crypt.EncryptSegment(compressed, keyPair, keyVersion, tweak)
	if err != nil {
		return prepared{}, err
	}

	out.payload = ciphertext
	out.encrypted = true
	out.encMeta = model.EncryptionMetadata{
		Encrypted:         true,
		EncryptionVersion: meta.EncryptionVersion,
		KeyVersion:        meta.KeyVersion,
		TweakNonce:        meta.TweakNonce,
		CiphertextLen:     meta.CiphertextLen,
		IntegrityTag:      meta.IntegrityTag,
	}
	return out, nil
}
