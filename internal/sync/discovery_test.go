package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverFindsSessionFilesAcrossProjects(t *testing.T) {
	root := t.TempDir()
	writeSessionFile(t, root, "-proj-a", "s1", "{}")
	writeSessionFile(t, root, "-proj-b", "s2", "{}")
	writeSessionFile(t, root, "-proj-b", "agent-x", "{}")

	files, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, f := range files {
		assert.True(t, filepath.Ext(f.Path) == ".jsonl")
	}
}

func TestDiscoverMissingRootReturnsEmpty(t *testing.T) {
	files, err := Discover(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverProjectRestrictsToOneDirectory(t *testing.T) {
	root := t.TempDir()
	writeSessionFile(t, root, "-proj-a", "s1", "{}")
	writeSessionFile(t, root, "-proj-b", "s2", "{}")

	files, err := DiscoverProject(root, "-proj-a")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "-proj-a", files[0].EncodedPath)
}

func TestFindSessionFileLocatesAcrossProjects(t *testing.T) {
	root := t.TempDir()
	writeSessionFile(t, root, "-proj-a", "s1", "{}")

	path, err := FindSessionFile(root, "s1")
	require.NoError(t, err)
	assert.True(t, filepath.Base(path) == "s1.jsonl")
}

func TestFindSessionFileNotFound(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(root, 0o755))
	_, err := FindSessionFile(root, "missing")
	assert.Error(t, err)
}
