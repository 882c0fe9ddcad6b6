// Package compress implements the entropy-gated compression engine:
// codec selection, adaptive gating (skip on high entropy or ineffective
// ratio), and a mandatory round-trip integrity check before a compressed
// payload is ever handed to the rest of the write pipeline.
package compress

// Compressor compresses a byte slice.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses a byte slice produced by the matching Compressor.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec is both directions of a single algorithm.
type Codec interface {
	Compressor
	Decompressor
}
