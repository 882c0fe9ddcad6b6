package compress

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamNilotpal/capsule/pkg/options"
)

func testEngine() *Engine {
	return New(zap.NewNop().Sugar())
}

func TestCompressSegmentNone(t *testing.T) {
	e := testEngine()
	data := bytes.Repeat([]byte("a"), 4096)

	out, result, err := e.CompressSegment(data, options.Compression{Kind: options.CompressionNone})
	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.False(t, result.Compressed)
	assert.Equal(t, "identity", result.Algorithm)
}

func TestCompressSegmentLZ4RoundTrips(t *testing.T) {
	e := testEngine()
	data := bytes.Repeat([]byte("highly compressible payload "), 2048)

	compressed, result, err := e.CompressSegment(data, options.Compression{Kind: options.CompressionLZ4, Level: 1})
	require.NoError(t, err)
	require.True(t, result.Compressed)
	assert.Less(t, len(compressed), len(data))

	out, err := e.DecompressSegment(compressed, result.Algorithm)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestCompressSegmentZstdRoundTrips(t *testing.T) {
	e := testEngine()
	data := bytes.Repeat([]byte("zstd is also a candidate codec here "), 2048)

	compressed, result, err := e.CompressSegment(data, options.Compression{Kind: options.CompressionZstd, Level: 3})
	require.NoError(t, err)
	require.True(t, result.Compressed)

	out, err := e.DecompressSegment(compressed, result.Algorithm)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestCompressSegmentSkipsHighEntropyInput(t *testing.T) {
	e := testEngine()
	data := make([]byte, entropySampleSize*2)
	_, err := rand.Read(data)
	require.NoError(t, err)

	out, result, err := e.CompressSegment(data, options.Compression{Kind: options.CompressionLZ4, Level: 1})
	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.False(t, result.Compressed)
	require.NotNil(t, result.Reason)
	assert.Equal(t, SkipReasonEntropy, result.Reason.Kind)
}

func TestCompressSegmentRevertsWhenIneffective(t *testing.T) {
	e := testEngine()
	// Short enough to bypass the entropy sample gate but incompressible.
	data := make([]byte, entropySampleSize-1)
	_, err := rand.Read(data)
	require.NoError(t, err)

	out, result, err := e.CompressSegment(data, options.Compression{Kind: options.CompressionLZ4, Level: 1})
	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.False(t, result.Compressed)
	if result.Reason != nil {
		assert.Equal(t, SkipReasonIneffective, result.Reason.Kind)
	}
}

func TestDecompressSegmentFallsBackOnUnknownTag(t *testing.T) {
	e := testEngine()
	data := []byte("already plaintext")
	out, err := e.DecompressSegment(data, "unknown-codec")
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestResultRatio(t *testing.T) {
	r := Result{OriginalSize: 100, CompressedSize: 50}
	assert.Equal(t, 2.0, r.Ratio())

	zero := Result{OriginalSize: 100, CompressedSize: 0}
	assert.Equal(t, 1.0, zero.Ratio())
}
