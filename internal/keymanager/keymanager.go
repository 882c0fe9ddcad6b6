// Package keymanager derives and caches versioned XTS-AES-256 key pairs
// from a single master key, and implements the rotation state machine: a
// rotation increments the active version and pre-derives its key without
// touching any previously written data, which remains readable under its
// recorded key version indefinitely.
package keymanager

import (
	"sync"

	"go.uber.org/zap"
	"lukechampine.com/blake3"

	sperrors "github.com/iamNilotpal/capsule/pkg/errors"
)

// kdfContext is the normative domain-separation string mixed into every
// key derivation, preventing this KDF's output from colliding with any
// other BLAKE3-keyed use elsewhere in the system.
const kdfContext = "SPACE-XTS-AES-256-KEY-V1"

// Manager holds a master key and derives/caches per-version XTS key pairs.
// It is mutex-guarded: derivation is pure and cheap, so the lock is held
// across cache lookups, derivation on a miss, and inserts, never across I/O.
type Manager struct {
	mu             sync.Mutex
	masterKey      [MasterKeySize]byte
	cache          map[uint32]KeyPair
	currentVersion uint32
	rotating       bool
	log            *zap.SugaredLogger
}

// New builds a Manager from a 32-byte master key, pre-deriving version 1.
func New(masterKey [MasterKeySize]byte, log *zap.SugaredLogger) *Manager {
	m := &Manager{
		masterKey:      masterKey,
		cache:          make(map[uint32]KeyPair, 4),
		currentVersion: 1,
		log:            log,
	}
	m.cache[1] = m.deriveKey(1)
	return m
}

// deriveKey computes KeyPair(v) = BLAKE3.xof(master_key || CONTEXT || v_le_u32),
// taking 64 bytes split into (key1, key2). Pure function of (masterKey, version).
func (m *Manager) deriveKey(version uint32) KeyPair {
	h := blake3.New(0, nil)
	h.Write(m.masterKey[:])
	h.Write([]byte(kdfContext))
	var versionLE [4]byte
	versionLE[0] = byte(version)
	versionLE[1] = byte(version >> 8)
	versionLE[2] = byte(version >> 16)
	versionLE[3] = byte(version >> 24)
	h.Write(versionLE[:])

	var out [XTSKeySize]byte
	digest := h.Digest()
	_, _ = digest.Read(out[:])
	return fromBytes(out)
}

// CurrentVersion returns the active key version new writes should use.
func (m *Manager) CurrentVersion() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentVersion
}

// GetKey returns the key pair for version, deriving and caching it on a
// miss. Any version is derivable (derivation is pure), so this never fails
// except for version 0, which the format reserves as "unset".
func (m *Manager) GetKey(version uint32) (KeyPair, error) {
	if version == 0 {
		return KeyPair{}, sperrors.NewCryptoError(nil, sperrors.ErrorCodeKeyError, "key version 0 is reserved").
			WithKeyVersion(version)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if kp, ok := m.cache[version]; ok {
		return kp, nil
	}

	kp := m.deriveKey(version)
	m.cache[version] = kp
	return kp, nil
}

// IsRotating reports whether a rotation has begun without yet completing.
func (m *Manager) IsRotating() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotating
}

// Rotate begins a new key rotation: increments the current version,
// pre-derives its key, and marks rotation in progress. Existing data keeps
// reading under its recorded version — rotation never re-encrypts. A second
// Rotate call before CompleteRotation fails with RotationInProgress.
func (m *Manager) Rotate() (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rotating {
		return 0, sperrors.NewRotationInProgressError()
	}

	m.rotating = true
	m.currentVersion++
	m.cache[m.currentVersion] = m.deriveKey(m.currentVersion)

	m.log.Infow("key rotation started", "new_version", m.currentVersion)
	return m.currentVersion, nil
}

// CompleteRotation clears the in-progress flag, allowing a future Rotate.
func (m *Manager) CompleteRotation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotating = false
	m.log.Infow("key rotation completed", "version", m.currentVersion)
}

// ClearCache drops every cached key pair except the current version,
// forcing re-derivation on next use. Useful for bounding memory when many
// rotations have accumulated stale cache entries.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.cache[m.currentVersion]
	m.cache = map[uint32]KeyPair{m.currentVersion: current}
}

// AvailableVersions returns the sorted set of cached key versions, for
// admin/debugging use.
func (m *Manager) AvailableVersions() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	versions := make([]uint32, 0, len(m.cache))
	for v := range m.cache {
		versions = append(versions, v)
	}
	for i := 1; i < len(versions); i++ {
		for j := i; j > 0 && versions[j-1] > versions[j]; j-- {
			versions[j-1], versions[j] = versions[j], versions[j-1]
		}
	}
	return versions
}
