package main

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCapture invokes run() with stdout/stderr backed by temp files, since
// run takes concrete *os.File handles rather than io.Writer, and returns
// the exit code plus each stream's captured content.
func runCapture(t *testing.T, args []string) (code int, stdout, stderr string) {
	t.Helper()

	outFile, err := os.CreateTemp(t.TempDir(), "stdout")
	require.NoError(t, err)
	defer outFile.Close()

	errFile, err := os.CreateTemp(t.TempDir(), "stderr")
	require.NoError(t, err)
	defer errFile.Close()

	code = run(args, outFile, errFile)

	outBytes, err := os.ReadFile(outFile.Name())
	require.NoError(t, err)
	errBytes, err := os.ReadFile(errFile.Name())
	require.NoError(t, err)

	return code, string(outBytes), string(errBytes)
}

func TestRunWithNoArgsPrintsUsage(t *testing.T) {
	code, _, stderr := runCapture(t, nil)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Usage:")
}

func TestRunUnknownCommand(t *testing.T) {
	code, _, stderr := runCapture(t, []string{"frobnicate"})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestRunHelp(t *testing.T) {
	code, stdout, _ := runCapture(t, []string{"--help"})
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Usage:")
}

func TestPutGetRmLifecycle(t *testing.T) {
	dataDir := t.TempDir()

	inputPath := filepath.Join(t.TempDir(), "payload.txt")
	require.NoError(t, os.WriteFile(inputPath, []byte("spacectl integration payload"), 0o644))

	code, stdout, stderr := runCapture(t, []string{"put", "--data-dir", dataDir, "--file", inputPath})
	require.Equal(t, 0, code, stderr)
	id := strings.TrimSpace(stdout)
	require.NotEmpty(t, id)

	code, stdout, stderr = runCapture(t, []string{"get", "--data-dir", dataDir, id})
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "spacectl integration payload", stdout)

	code, stdout, stderr = runCapture(t, []string{"rm", "--data-dir", dataDir, id})
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "deleted")

	code, _, stderr = runCapture(t, []string{"get", "--data-dir", dataDir, id})
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)
}

func TestPutRequiresFile(t *testing.T) {
	code, _, stderr := runCapture(t, []string{"put", "--data-dir", t.TempDir()})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--file is required")
}

func TestGetRejectsInvalidUUID(t *testing.T) {
	code, _, stderr := runCapture(t, []string{"get", "--data-dir", t.TempDir(), "not-a-uuid"})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid capsule id")
}

func TestGetRejectsWrongArgCount(t *testing.T) {
	code, _, stderr := runCapture(t, []string{"get", "--data-dir", t.TempDir()})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "expected exactly one capsule id")
}

func TestGC(t *testing.T) {
	dataDir := t.TempDir()
	code, stdout, stderr := runCapture(t, []string{"gc", "--data-dir", dataDir})
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "reclaimed")
}

func TestRotateKeyRequiresMasterKey(t *testing.T) {
	os.Unsetenv("SPACE_MASTER_KEY")
	code, _, stderr := runCapture(t, []string{"rotate-key", "--data-dir", t.TempDir()})
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)
}

func TestRotateKeyWithMasterKeyEnv(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	t.Setenv("SPACE_MASTER_KEY", hex.EncodeToString(key))

	code, stdout, stderr := runCapture(t, []string{"rotate-key", "--data-dir", t.TempDir()})
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "key version")
}

func TestPutWithEncryptionRequiresMasterKey(t *testing.T) {
	os.Unsetenv("SPACE_MASTER_KEY")
	dataDir := t.TempDir()
	inputPath := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(inputPath, []byte("top secret"), 0o644))

	code, _, stderr := runCapture(t, []string{"put", "--data-dir", dataDir, "--file", inputPath, "--encrypt"})
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)
}
