package compress

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// lz4Codec wraps pierrec/lz4's stream API behind the package's Codec shape.
type lz4Codec struct {
	level lz4.CompressionLevel
}

var _ Codec = lz4Codec{}

// newLZ4Codec maps a policy LZ4 level onto pierrec/lz4's named levels:
// 1 (or below) selects the fast compressor, 2-8 the matching
// high-compression level, and 9 or above Level9.
func newLZ4Codec(level int) lz4Codec {
	hcLevels := []lz4.CompressionLevel{
		lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8,
	}
	switch {
	case level <= 1:
		return lz4Codec{level: lz4.Fast}
	case level >= 9:
		return lz4Codec{level: lz4.Level9}
	default:
		return lz4Codec{level: hcLevels[level-2]}
	}
}

func (c lz4Codec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if err := w.Apply(lz4.CompressionLevelOption(c.level)); err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lz4Codec) Decompress(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	return io.ReadAll(r)
}
