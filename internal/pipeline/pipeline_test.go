package pipeline

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamNilotpal/capsule/internal/catalog"
	"github.com/iamNilotpal/capsule/internal/compress"
	"github.com/iamNilotpal/capsule/internal/crypto"
	"github.com/iamNilotpal/capsule/internal/keymanager"
	"github.com/iamNilotpal/capsule/internal/segmentlog"
	"github.com/iamNilotpal/capsule/pkg/options"
)

func testPipeline(t *testing.T, withKeys bool) *Pipeline {
	t.Helper()
	lg := zap.NewNop().Sugar()

	log, err := segmentlog.Open(context.Background(), t.TempDir(), lg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	cat, err := catalog.Open(context.Background(), t.TempDir(), lg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })

	var keys *keymanager.Manager
	if withKeys {
		keys = keymanager.New([keymanager.MasterKeySize]byte{1, 2, 3}, lg)
	}

	return New(Config{
		Log:                log,
		Catalog:            cat,
		Compress:           compress.New(lg),
		Crypto:             crypto.New(),
		Keys:               keys,
		MaxConcurrency:     4,
		MemoryLimitPerTask: DefaultMemoryLimitPerTask,
		Logger:             lg,
	})
}

func TestWriteAndReadCapsuleRoundTrip(t *testing.T) {
	p := testPipeline(t, false)
	data := bytes.Repeat([]byte("capsule payload bytes "), 4096)

	id, err := p.WriteCapsule(data, options.DefaultPolicy())
	require.NoError(t, err)

	got, err := p.ReadCapsule(id)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestWriteEmptyCapsule(t *testing.T) {
	p := testPipeline(t, false)

	id, err := p.WriteCapsule(nil, options.DefaultPolicy())
	require.NoError(t, err)

	got, err := p.ReadCapsule(id)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteCapsuleDedupsAcrossWrites(t *testing.T) {
	p := testPipeline(t, false)
	policy := options.DefaultPolicy()
	data := bytes.Repeat([]byte("shared content across writes "), 4096)

	id1, err := p.WriteCapsule(data, policy)
	require.NoError(t, err)
	id2, err := p.WriteCapsule(data, policy)
	require.NoError(t, err)

	cap2, err := p.cat.Lookup(id2)
	require.NoError(t, err)
	assert.Greater(t, cap2.DedupedBytes, uint64(0))

	got1, err := p.ReadCapsule(id1)
	require.NoError(t, err)
	got2, err := p.ReadCapsule(id2)
	require.NoError(t, err)
	assert.Equal(t, got1, got2)
}

func TestWriteCapsuleWithEncryption(t *testing.T) {
	p := testPipeline(t, true)
	policy := options.DefaultPolicy()
	policy.Encryption.Kind = options.EncryptionXtsAes256
	data := bytes.Repeat([]byte("sensitive capsule content "), 4096)

	id, err := p.WriteCapsule(data, policy)
	require.NoError(t, err)

	got, err := p.ReadCapsule(id)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestWriteCapsuleEncryptionWithoutKeyFails(t *testing.T) {
	p := testPipeline(t, false)
	policy := options.DefaultPolicy()
	policy.Encryption.Kind = options.EncryptionXtsAes256

	_, err := p.WriteCapsule(bytes.Repeat([]byte("x"), SegmentSize), policy)
	assert.Error(t, err)
}

func TestWriteCapsuleConcurrentMatchesSequential(t *testing.T) {
	p := testPipeline(t, false)
	policy := options.DefaultPolicy()
	data := bytes.Repeat([]byte("concurrent write payload chunk "), SegmentSize/16)

	seqID, err := p.WriteCapsule(data, policy)
	require.NoError(t, err)

	concID, err := p.WriteCapsuleConcurrent(context.Background(), data, policy)
	require.NoError(t, err)

	seqData, err := p.ReadCapsule(seqID)
	require.NoError(t, err)
	concData, err := p.ReadCapsule(concID)
	require.NoError(t, err)

	assert.Equal(t, seqData, concData)
}

func TestReadRangeReturnsBoundedSlice(t *testing.T) {
	p := testPipeline(t, false)
	data := []byte("0123456789abcdef")

	id, err := p.WriteCapsule(data, options.DefaultPolicy())
	require.NoError(t, err)

	got, err := p.ReadRange(id, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, "23456", string(got))
}

func TestReadRangeRejectsOutOfBounds(t *testing.T) {
	p := testPipeline(t, false)
	data := []byte("short")

	id, err := p.WriteCapsule(data, options.DefaultPolicy())
	require.NoError(t, err)

	_, err = p.ReadRange(id, 0, 100)
	assert.Error(t, err)
}

func TestDeleteCapsuleRemovesRecordAndReclaimsUniqueSegment(t *testing.T) {
	p := testPipeline(t, false)
	data := bytes.Repeat([]byte("unique segment content "), 4096)

	id, err := p.WriteCapsule(data, options.DefaultPolicy())
	require.NoError(t, err)
	capRec, err := p.cat.Lookup(id)
	require.NoError(t, err)

	require.NoError(t, p.DeleteCapsule(id))

	_, err = p.ReadCapsule(id)
	assert.Error(t, err)
	for _, segID := range capRec.Segments {
		_, err := p.log.GetMetadata(segID)
		assert.Error(t, err)
	}
}

func TestDeleteCapsuleKeepsSharedSegmentAlive(t *testing.T) {
	p := testPipeline(t, false)
	policy := options.DefaultPolicy()
	data := bytes.Repeat([]byte("shared between two capsules "), 4096)

	id1, err := p.WriteCapsule(data, policy)
	require.NoError(t, err)
	id2, err := p.WriteCapsule(data, policy)
	require.NoError(t, err)

	require.NoError(t, p.DeleteCapsule(id1))

	got, err := p.ReadCapsule(id2)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
