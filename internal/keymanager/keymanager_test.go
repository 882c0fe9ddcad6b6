package keymanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testMasterKey() [MasterKeySize]byte {
	var k [MasterKeySize]byte
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func TestNewPreDerivesVersion1(t *testing.T) {
	m := New(testMasterKey(), zap.NewNop().Sugar())
	assert.Equal(t, uint32(1), m.CurrentVersion())

	versions := m.AvailableVersions()
	require.Len(t, versions, 1)
	assert.Equal(t, uint32(1), versions[0])
}

func TestGetKeyIsDeterministic(t *testing.T) {
	m := New(testMasterKey(), zap.NewNop().Sugar())

	kp1, err := m.GetKey(1)
	require.NoError(t, err)
	kp2, err := m.GetKey(1)
	require.NoError(t, err)

	assert.Equal(t, kp1.Key1(), kp2.Key1())
	assert.Equal(t, kp1.Key2(), kp2.Key2())
}

func TestGetKeyDistinguishesVersions(t *testing.T) {
	m := New(testMasterKey(), zap.NewNop().Sugar())

	kp1, err := m.GetKey(1)
	require.NoError(t, err)
	kp2, err := m.GetKey(2)
	require.NoError(t, err)

	assert.NotEqual(t, kp1.Key1(), kp2.Key1())
}

func TestGetKeyRejectsVersionZero(t *testing.T) {
	m := New(testMasterKey(), zap.NewNop().Sugar())
	_, err := m.GetKey(0)
	assert.Error(t, err)
}

func TestRotateAdvancesVersionAndCachesKey(t *testing.T) {
	m := New(testMasterKey(), zap.NewNop().Sugar())

	newVersion, err := m.Rotate()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), newVersion)
	assert.Equal(t, uint32(2), m.CurrentVersion())
	assert.True(t, m.IsRotating())
}

func TestRotateRejectsConcurrentRotation(t *testing.T) {
	m := New(testMasterKey(), zap.NewNop().Sugar())

	_, err := m.Rotate()
	require.NoError(t, err)

	_, err = m.Rotate()
	assert.Error(t, err)
}

func TestCompleteRotationClearsFlag(t *testing.T) {
	m := New(testMasterKey(), zap.NewNop().Sugar())

	_, err := m.Rotate()
	require.NoError(t, err)
	require.True(t, m.IsRotating())

	m.CompleteRotation()
	assert.False(t, m.IsRotating())

	_, err = m.Rotate()
	assert.NoError(t, err)
}

func TestClearCacheKeepsOnlyCurrentVersion(t *testing.T) {
	m := New(testMasterKey(), zap.NewNop().Sugar())
	_, err := m.GetKey(5)
	require.NoError(t, err)
	require.Len(t, m.AvailableVersions(), 2)

	m.ClearCache()
	versions := m.AvailableVersions()
	require.Len(t, versions, 1)
	assert.Equal(t, m.CurrentVersion(), versions[0])
}

func TestOldVersionStillReadableAfterRotation(t *testing.T) {
	m := New(testMasterKey(), zap.NewNop().Sugar())
	kpBefore, err := m.GetKey(1)
	require.NoError(t, err)

	_, err = m.Rotate()
	require.NoError(t, err)
	m.CompleteRotation()

	kpAfter, err := m.GetKey(1)
	require.NoError(t, err)
	assert.Equal(t, kpBefore.Key1(), kpAfter.Key1())
}
