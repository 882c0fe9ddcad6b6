package engine

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamNilotpal/capsule/pkg/options"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	return &Config{Options: &opts, Logger: zap.NewNop().Sugar()}
}

func TestNewOpensAndCloses(t *testing.T) {
	e, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	assert.NoError(t, e.Close())
}

func TestWriteReadDeleteLifecycle(t *testing.T) {
	e, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer e.Close()

	data := bytes.Repeat([]byte("engine lifecycle payload "), 1024)
	id, err := e.WriteCapsule(data, options.DefaultPolicy())
	require.NoError(t, err)

	got, err := e.ReadCapsule(id)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, e.DeleteCapsule(id))
	_, err = e.ReadCapsule(id)
	assert.Error(t, err)
}

func TestOperationsFailAfterClose(t *testing.T) {
	e, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	require.NoError(t, e.Close())

	_, err = e.WriteCapsule([]byte("x"), options.DefaultPolicy())
	assert.ErrorIs(t, err, ErrEngineClosed)

	_, err = e.ReadCapsule(uuid.New())
	assert.ErrorIs(t, err, ErrEngineClosed)

	_, err = e.ReadRange(uuid.New(), 0, 1)
	assert.ErrorIs(t, err, ErrEngineClosed)

	assert.ErrorIs(t, e.DeleteCapsule(uuid.New()), ErrEngineClosed)

	_, err = e.GarbageCollect()
	assert.ErrorIs(t, err, ErrEngineClosed)

	_, err = e.RotateKey()
	assert.ErrorIs(t, err, ErrEngineClosed)
}

func TestCloseIsNotIdempotent(t *testing.T) {
	e, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Close(), ErrEngineClosed)
}

func TestRotateKeyWithoutMasterKeyFails(t *testing.T) {
	e, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer e.Close()

	_, err = e.RotateKey()
	assert.Error(t, err)
}

func TestRotateKeyWithMasterKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Options.MasterKey = [32]byte{9, 9, 9}
	cfg.Options.HasMasterKey = true

	e, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()

	version, err := e.RotateKey()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), version)
	e.CompleteKeyRotation()
}

func TestGarbageCollectOnDemand(t *testing.T) {
	e, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer e.Close()

	data := bytes.Repeat([]byte("gc candidate payload "), 1024)
	id, err := e.WriteCapsule(data, options.DefaultPolicy())
	require.NoError(t, err)
	require.NoError(t, e.DeleteCapsule(id))

	reclaimed, err := e.GarbageCollect()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, reclaimed, 0)
}

func TestBackgroundGCStopsCleanlyOnClose(t *testing.T) {
	cfg := testConfig(t)
	cfg.Options.GCInterval = 10 * time.Millisecond

	e, err := New(context.Background(), cfg)
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	assert.NoError(t, e.Close())
}
