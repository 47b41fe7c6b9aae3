package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCheckpointMissingFileReturnsZeroValue(t *testing.T) {
	c, err := LoadCheckpoint(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, Checkpoint{}, c)
}

func TestSaveAndLoadCheckpointRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	c := NewCheckpoint().MarkDone("s1").MarkDone("s2")

	require.NoError(t, SaveCheckpoint(path, c))
	loaded, err := LoadCheckpoint(path)
	require.NoError(t, err)

	assert.Equal(t, c.RunID, loaded.RunID)
	assert.True(t, loaded.Done("s1"))
	assert.True(t, loaded.Done("s2"))
	assert.False(t, loaded.Done("s3"))
}

func TestSaveCheckpointLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.json")
	require.NoError(t, SaveCheckpoint(path, NewCheckpoint()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "checkpoint.json", entries[0].Name())
}

func TestDeleteCheckpointIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	require.NoError(t, DeleteCheckpoint(path)) // doesn't exist yet
	require.NoError(t, SaveCheckpoint(path, NewCheckpoint()))
	require.NoError(t, DeleteCheckpoint(path))
	require.NoError(t, DeleteCheckpoint(path)) // already gone
}
