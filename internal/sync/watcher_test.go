package sync

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	root := t.TempDir()

	var mu sync.Mutex
	var notified [][]string
	w, err := NewWatcher(30*time.Millisecond, testLogger{}, func(paths []string) {
		mu.Lock()
		notified = append(notified, paths)
		mu.Unlock()
	})
	require.NoError(t, err)

	watched, _, err := w.WatchRecursive(root)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, watched, 1)

	w.Start()
	defer w.Stop()

	path := filepath.Join(root, "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("{}\n{}\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(notified) > 0
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, notified, 1, "both writes should collapse into one notification")
	assert.Equal(t, []string{path}, notified[0])
}

func TestNewWatcherRejectsNilCallback(t *testing.T) {
	_, err := NewWatcher(time.Second, testLogger{}, nil)
	assert.Error(t, err)
}
