package capsule

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/capsule/pkg/options"
)

func TestOpenCreatesStoreUnderDataDir(t *testing.T) {
	store, err := Open(context.Background(), "capsule-test", options.WithDataDir(t.TempDir()))
	require.NoError(t, err)
	defer store.Close()

	assert.False(t, store.options.HasMasterKey)
}

func TestOpenPicksUpMasterKeyFromEnv(t *testing.T) {
	key, err := GenerateMasterKey()
	require.NoError(t, err)
	t.Setenv("SPACE_MASTER_KEY", hex.EncodeToString(key[:]))

	store, err := Open(context.Background(), "capsule-test", options.WithDataDir(t.TempDir()))
	require.NoError(t, err)
	defer store.Close()

	assert.True(t, store.options.HasMasterKey)
	assert.Equal(t, key, store.options.MasterKey)
}

func TestOpenProgrammaticKeyTakesPrecedenceOverEnv(t *testing.T) {
	envKey, err := GenerateMasterKey()
	require.NoError(t, err)
	t.Setenv("SPACE_MASTER_KEY", hex.EncodeToString(envKey[:]))

	explicitKey, err := GenerateMasterKey()
	require.NoError(t, err)

	store, err := Open(
		context.Background(), "capsule-test",
		options.WithDataDir(t.TempDir()), options.WithMasterKey(explicitKey),
	)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, explicitKey, store.options.MasterKey)
}

func TestOpenIgnoresMalformedEnvKey(t *testing.T) {
	t.Setenv("SPACE_MASTER_KEY", "not-hex")

	store, err := Open(context.Background(), "capsule-test", options.WithDataDir(t.TempDir()))
	require.NoError(t, err)
	defer store.Close()

	assert.False(t, store.options.HasMasterKey)
}

func TestMasterKeyFromEnvMissing(t *testing.T) {
	os.Unsetenv("SPACE_MASTER_KEY")
	_, ok := masterKeyFromEnv()
	assert.False(t, ok)
}

func TestMasterKeyFromEnvWrongLength(t *testing.T) {
	t.Setenv("SPACE_MASTER_KEY", hex.EncodeToString([]byte("short")))
	_, ok := masterKeyFromEnv()
	assert.False(t, ok)
}

func TestGenerateMasterKeyProducesDistinctKeys(t *testing.T) {
	a, err := GenerateMasterKey()
	require.NoError(t, err)
	b, err := GenerateMasterKey()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestStoreWriteReadDeleteRoundTrip(t *testing.T) {
	store, err := Open(context.Background(), "capsule-test", options.WithDataDir(t.TempDir()))
	require.NoError(t, err)
	defer store.Close()

	data := bytes.Repeat([]byte("facade round trip payload "), 4096)
	id, err := store.WriteCapsule(data, options.DefaultPolicy())
	require.NoError(t, err)

	got, err := store.ReadCapsule(id)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	ranged, err := store.ReadRange(id, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, data[:10], ranged)

	require.NoError(t, store.DeleteCapsule(id))
	_, err = store.ReadCapsule(id)
	assert.Error(t, err)
}

func TestStoreWriteCapsuleConcurrent(t *testing.T) {
	store, err := Open(context.Background(), "capsule-test", options.WithDataDir(t.TempDir()))
	require.NoError(t, err)
	defer store.Close()

	data := bytes.Repeat([]byte("facade concurrent payload "), 4096)
	id, err := store.WriteCapsuleConcurrent(context.Background(), data, options.DefaultPolicy())
	require.NoError(t, err)

	got, err := store.ReadCapsule(id)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestStoreGarbageCollect(t *testing.T) {
	store, err := Open(context.Background(), "capsule-test", options.WithDataDir(t.TempDir()))
	require.NoError(t, err)
	defer store.Close()

	data := bytes.Repeat([]byte("gc facade payload "), 4096)
	id, err := store.WriteCapsule(data, options.DefaultPolicy())
	require.NoError(t, err)
	require.NoError(t, store.DeleteCapsule(id))

	reclaimed, err := store.GarbageCollect()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, reclaimed, 0)
}

func TestStoreRotateKeyRequiresMasterKey(t *testing.T) {
	store, err := Open(context.Background(), "capsule-test", options.WithDataDir(t.TempDir()))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.RotateKey()
	assert.Error(t, err)
}

func TestStoreRotateKeyWithMasterKey(t *testing.T) {
	key, err := GenerateMasterKey()
	require.NoError(t, err)

	store, err := Open(
		context.Background(), "capsule-test",
		options.WithDataDir(t.TempDir()), options.WithMasterKey(key),
	)
	require.NoError(t, err)
	defer store.Close()

	version, err := store.RotateKey()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), version)
	store.CompleteKeyRotation()
}

func TestStoreCloseReleasesResources(t *testing.T) {
	store, err := Open(context.Background(), "capsule-test", options.WithDataDir(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
