package keymanager

// XTSKeySize is the total size of a derived key pair: two AES-256 keys.
const XTSKeySize = 64

// MasterKeySize is the size of the master key all versions are derived from.
const MasterKeySize = 32

// KeyPair is a single XTS-AES-256 key pair: key1 is used as the block
// cipher key for the data, key2 as the block cipher key for the tweak.
// Debug/Stringer formatting deliberately never prints key bytes.
type KeyPair struct {
	key1 [32]byte
	key2 [32]byte
}

// fromBytes splits a 64-byte KDF output into the two 32-byte halves.
func fromBytes(b [XTSKeySize]byte) KeyPair {
	var kp KeyPair
	copy(kp.key1[:], b[0:32])
	copy(kp.key2[:], b[32:64])
	return kp
}

// Key1 returns the first AES-256 key, used for XTS data-block encryption.
func (kp KeyPair) Key1() [32]byte {
	return kp.key1
}

// Key2 returns the second AES-256 key, used for XTS tweak encryption.
func (kp KeyPair) Key2() [32]byte {
	return kp.key2
}

// String implements fmt.Stringer without ever revealing key material.
func (kp KeyPair) String() string {
	return "KeyPair{[REDACTED]}"
}

// GoString implements fmt.GoStringer for the same reason, covering %#v.
func (kp KeyPair) GoString() string {
	return "keymanager.KeyPair{key1: [REDACTED], key2: [REDACTED]}"
}

// Zero overwrites both halves of the key pair with zero bytes. Go slices of
// fixed-size arrays are copied by value, so this only guarantees the
// receiver's own storage is wiped — callers holding a separate copy (e.g.
// from an earlier Key1()/Key2() call) must zero those themselves.
func (kp *KeyPair) Zero() {
	for i := range kp.key1 {
		kp.key1[i] = 0
	}
	for i := range kp.key2 {
		kp.key2[i] = 0
	}
}
