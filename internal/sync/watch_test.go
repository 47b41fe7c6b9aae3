package sync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memory-nexus/memory-nexus/internal/ports"
)

func TestWatchResyncsOnFileChangeAndStopsOnSignal(t *testing.T) {
	root := t.TempDir()
	// Pre-create the project directory so the recursive watch already
	// covers it when Watch starts, rather than relying on the
	// dynamic watch-new-subdirectory path for a file write that
	// follows immediately.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "-proj"), 0o755))
	orch, db := newTestOrchestrator(t, root)

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- orch.Watch(30*time.Millisecond, "*/15 * * * *", testLogger{}, stop) }()

	writeSessionFile(t, root, "-proj", "s1", basicExtractionFile)

	require.Eventually(t, func() bool {
		var n int
		if err := db.Reader().QueryRow(`SELECT count(*) FROM sessions`).Scan(&n); err != nil {
			return false
		}
		return n == 1
	}, 2*time.Second, 20*time.Millisecond)

	close(stop)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after stop was closed")
	}
}

func TestResyncChangedProjectsDeduplicatesByProject(t *testing.T) {
	root := t.TempDir()
	p1 := writeSessionFile(t, root, "-proj", "s1", basicExtractionFile)
	p2 := writeSessionFile(t, root, "-proj", "s2", basicExtractionFile)
	orch, db := newTestOrchestrator(t, root)
	sink := &doneCountingSink{}
	orch.progress = sink

	orch.resyncChangedProjects([]string{p1, p2}, testLogger{})

	var n int
	require.NoError(t, db.Reader().QueryRow(`SELECT count(*) FROM sessions`).Scan(&n))
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, sink.done, "both files share one project, so one project sync runs")
}

// doneCountingSink counts completed sync runs.
type doneCountingSink struct{ done int }

func (s *doneCountingSink) Report(p ports.Progress) {
	if p.Phase == ports.PhaseDone {
		s.done++
	}
}

func TestResyncChangedProjectsLogsFailureButDoesNotPanic(t *testing.T) {
	root := t.TempDir()
	orch, _ := newTestOrchestrator(t, root)
	missing := filepath.Join(root, "-gone", "x.jsonl")

	assert.NotPanics(t, func() {
		orch.resyncChangedProjects([]string{missing}, testLogger{})
	})
}
