package compress

// identityCodec is the pass-through codec selected for an unrecognized
// compression kind or algorithm tag (and for the "identity" tag). The
// CompressionNone, entropy-skip and ineffective-ratio paths return the
// original bytes directly without going through it. It never allocates:
// both directions hand back the input slice unchanged.
type identityCodec struct{}

var _ Codec = identityCodec{}

func (identityCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (identityCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
