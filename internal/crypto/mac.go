package crypto

import (
	"crypto/subtle"
	"encoding/binary"

	"lukechampine.com/blake3"
)

// macKeyContext is the normative domain-separation string for deriving the
// keyed-BLAKE3 MAC key from an XTS key pair.
const macKeyContext = "SPACE-BLAKE3-MAC-KEY-V1"

// MACTagSize is the length, in bytes, of a truncated integrity tag.
const MACTagSize = 16

// deriveMACKey computes BLAKE3("SPACE-BLAKE3-MAC-KEY-V1" || key1 || key2),
// producing the 32-byte key used to seed the keyed BLAKE3 MAC. Binding the
// MAC key to both halves of the XTS key pair means a rotated key version
// authenticates with an entirely independent MAC key too.
func deriveMACKey(key1, key2 [32]byte) [32]byte {
	h := blake3.New(32, nil)
	h.Write([]byte(macKeyContext))
	h.Write(key1[:])
	h.Write(key2[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// metadataBytes deterministically serializes the encryption metadata
// fields covered by the MAC: encryption_version, key_version, tweak_nonce,
// and ciphertext_len, little-endian, in that fixed order.
func metadataBytes(encryptionVersion uint16, keyVersion uint32, tweak [16]byte, ciphertextLen uint32) []byte {
	buf := make([]byte, 0, 2+4+16+4)
	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], encryptionVersion)
	buf = append(buf, u16[:]...)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], keyVersion)
	buf = append(buf, u32[:]...)

	buf = append(buf, tweak[:]...)

	binary.LittleEndian.PutUint32(u32[:], ciphertextLen)
	buf = append(buf, u32[:]...)

	return buf
}

// computeMAC derives the MAC key from the key pair and computes the
// 16-byte tag over ciphertext followed by the metadata fields it covers.
func computeMAC(key1, key2 [32]byte, ciphertext []byte, encryptionVersion uint16, keyVersion uint32, tweak [16]byte, ciphertextLen uint32) [16]byte {
	macKey := deriveMACKey(key1, key2)
	h := blake3.New(32, macKey[:])
	h.Write(ciphertext)
	h.Write(metadataBytes(encryptionVersion, keyVersion, tweak, ciphertextLen))

	full := h.Sum(nil)
	var tag [16]byte
	copy(tag[:], full[:16])
	return tag
}

// verifyMAC recomputes the tag and compares it in constant time against
// the one presented, as required by the MAC-tamper-detection property:
// flipping any bit in the ciphertext or covered metadata must be detected.
func verifyMAC(key1, key2 [32]byte, ciphertext []byte, encryptionVersion uint16, keyVersion uint32, tweak [16]byte, ciphertextLen uint32, tag [16]byte) bool {
	expected := computeMAC(key1, key2, ciphertext, encryptionVersion, keyVersion, tweak, ciphertextLen)
	return subtle.ConstantTimeCompare(expected[:], tag[:]) == 1
}
