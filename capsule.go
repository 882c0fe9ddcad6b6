// Package capsule is a content-addressed, segment-oriented capsule storage
// engine. Data written through a Store is split into fixed-size segments,
// each independently compressed, content-hashed, optionally encrypted at
// rest with XTS-AES-256, and deduplicated against every segment the store
// has ever seen with the same post-compression content.
package capsule

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/iamNilotpal/capsule/internal/engine"
	"github.com/iamNilotpal/capsule/pkg/logger"
	"github.com/iamNilotpal/capsule/pkg/options"
)

// Store is the primary entry point for interacting with a capsule store. It
// encapsulates the underlying engine and the configuration this particular
// instance was opened with.
type Store struct {
	engine  *engine.Engine
	options *options.Options
}

// Open creates and initializes a new Store, recovering any existing state
// found under the configured data directory. service names this instance
// in its structured logs.
func Open(ctx context.Context, service string, opts ...options.OptionFunc) (*Store, error) {
	log := logger.New(service)

	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}
	if !defaultOpts.HasMasterKey {
		if key, ok := masterKeyFromEnv(); ok {
			defaultOpts.MasterKey = key
			defaultOpts.HasMasterKey = true
		}
	}

	eng, err := engine.New(ctx, &engine.Config{Logger: log, Options: &defaultOpts})
	if err != nil {
		return nil, err
	}

	return &Store{engine: eng, options: &defaultOpts}, nil
}

// masterKeyFromEnv reads a 64-hex-character master key from
// options.MasterKeyEnvVar, if present.
func masterKeyFromEnv() ([32]byte, bool) {
	var key [32]byte
	raw := strings.TrimSpace(os.Getenv(options.MasterKeyEnvVar))
	if raw == "" {
		return key, false
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil || len(decoded) != 32 {
		return key, false
	}
	copy(key[:], decoded)
	return key, true
}

// GenerateMasterKey returns a fresh random 32-byte key, suitable for
// WithMasterKey or the SPACE_MASTER_KEY environment variable (hex-encoded).
func GenerateMasterKey() ([32]byte, error) {
	var key [32]byte
	if _, err := rand.Read(key[:]); err != nil {
		return key, err
	}
	return key, nil
}

// WriteCapsule writes data as one or more content-addressed segments under
// policy, returning the new capsule's id.
func (s *Store) WriteCapsule(data []byte, policy options.Policy) (uuid.UUID, error) {
	return s.engine.WriteCapsule(data, policy)
}

// WriteCapsuleConcurrent is WriteCapsule with parallel segment preparation;
// see the package's concurrent write pipeline for its ordering guarantees.
func (s *Store) WriteCapsuleConcurrent(ctx context.Context, data []byte, policy options.Policy) (uuid.UUID, error) {
	return s.engine.WriteCapsuleConcurrent(ctx, data, policy)
}

// ReadCapsule reconstructs and returns a capsule's full plaintext.
func (s *Store) ReadCapsule(id uuid.UUID) ([]byte, error) {
	return s.engine.ReadCapsule(id)
}

// ReadRange returns the [offset, offset+length) slice of a capsule's
// plaintext, without requiring the caller to materialize the whole capsule
// first at the call site (the engine still reconstructs it internally).
func (s *Store) ReadRange(id uuid.UUID, offset uint64, length int) ([]byte, error) {
	return s.engine.ReadRange(id, offset, length)
}

// DeleteCapsule removes a capsule record and decrements the refcount of
// every segment it referenced, reclaiming any that drop to zero.
func (s *Store) DeleteCapsule(id uuid.UUID) error {
	return s.engine.DeleteCapsule(id)
}

// GarbageCollect runs an immediate sweep of zero-refcount segments and
// returns how many were reclaimed, independent of the background timer
// configured via options.WithGCInterval.
func (s *Store) GarbageCollect() (int, error) {
	return s.engine.GarbageCollect()
}

// RotateKey begins using a new encryption key version for subsequent
// writes. Existing segments stay readable under their original version.
// Returns an error if the store was opened without a master key.
func (s *Store) RotateKey() (uint32, error) {
	return s.engine.RotateKey()
}

// CompleteKeyRotation marks an in-progress key rotation finished, allowing
// a future rotation to begin. Call this once segments written under the
// previous key version are no longer expected to be read, or once re-
// encryption of old segments (if performed out-of-band) has finished.
func (s *Store) CompleteKeyRotation() {
	s.engine.CompleteKeyRotation()
}

// Close releases all resources held by the store: the background GC timer,
// the segment log, and the catalog file.
func (s *Store) Close() error {
	return s.engine.Close()
}
