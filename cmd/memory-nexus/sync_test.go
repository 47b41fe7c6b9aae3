package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memory-nexus/memory-nexus/internal/ports"
	"github.com/memory-nexus/memory-nexus/internal/store"
	"github.com/memory-nexus/memory-nexus/internal/sync"
)

func newTestOrchestrator(t *testing.T) *sync.Orchestrator {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	root := t.TempDir()
	checkpoint := filepath.Join(t.TempDir(), "checkpoint.json")
	return sync.New(db, root, checkpoint, nil, nil)
}

func TestDispatchSyncPrefersSessionOverProject(t *testing.T) {
	orch := newTestOrchestrator(t)
	// No matching session file exists, so this exercises the routing
	// logic rather than a real sync; it should fail locating the file
	// rather than silently falling through to RunAll/RunProject.
	_, err := dispatchSync(orch, "missing-session", "some-project", false)
	assert.Error(t, err)
}

func TestDispatchSyncFallsBackToRunAll(t *testing.T) {
	orch := newTestOrchestrator(t)
	result, err := dispatchSync(orch, "", "", false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
}

func TestProgressSinkQuietIsNoop(t *testing.T) {
	sink := progressSink(true)
	_, ok := sink.(ports.NoopProgressSink)
	assert.True(t, ok)
}

func TestProgressSinkVerboseReportsToStderr(t *testing.T) {
	sink := progressSink(false)
	_, ok := sink.(stderrProgress)
	assert.True(t, ok)
}
