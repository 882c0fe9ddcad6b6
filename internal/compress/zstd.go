package compress

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdCodec wraps klauspost/compress/zstd's stateless EncodeAll/DecodeAll
// API. Encoders and decoders are pooled per the library's own guidance:
// both types are safe to reuse across calls and expensive to construct.
type zstdCodec struct {
	level zstd.EncoderLevel
}

var _ Codec = zstdCodec{}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(err)
		}
		return dec
	},
}

var zstdEncoderPools sync.Map // map[zstd.EncoderLevel]*sync.Pool

func encoderPoolFor(level zstd.EncoderLevel) *sync.Pool {
	if p, ok := zstdEncoderPools.Load(level); ok {
		return p.(*sync.Pool)
	}
	pool := &sync.Pool{
		New: func() any {
			enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
			if err != nil {
				panic(err)
			}
			return enc
		},
	}
	actual, _ := zstdEncoderPools.LoadOrStore(level, pool)
	return actual.(*sync.Pool)
}

func newZstdCodec(level int) zstdCodec {
	return zstdCodec{level: clampZstdEncoderLevel(level)}
}

// clampZstdEncoderLevel maps a signed Zstd level (as used by the policy,
// following the conventional [-5, 22] range) onto the klauspost library's
// named EncoderLevel tiers.
func clampZstdEncoderLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 1:
		return zstd.SpeedFastest
	case level <= 6:
		return zstd.SpeedDefault
	case level <= 12:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func (c zstdCodec) Compress(data []byte) ([]byte, error) {
	pool := encoderPoolFor(c.level)
	enc := pool.Get().(*zstd.Encoder)
	defer pool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

func (zstdCodec) Decompress(data []byte) ([]byte, error) {
	dec := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)
	return dec.DecodeAll(data, nil)
}
