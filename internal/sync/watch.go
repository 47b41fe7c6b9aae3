package sync

import (
	"path/filepath"
	"time"

	"github.com/memory-nexus/memory-nexus/internal/ports"
)

// Watch runs the orchestrator resident: a recursive fsnotify watch
// over the session root triggers a project-scoped resync shortly
// after a host writes to a session file, and a cron fallback runs a
// full resync on a fixed schedule as a backstop for hosts or
// filesystems the watcher can't see. It blocks until stop is closed,
// then stops both and returns.
func (o *Orchestrator) Watch(debounce time.Duration, cronSpec string, logger ports.Logger, stop <-chan struct{}) error {
	watcher, err := NewWatcher(debounce, logger, func(paths []string) {
		o.resyncChangedProjects(paths, logger)
	})
	if err != nil {
		return err
	}

	watched, unwatched, err := watcher.WatchRecursive(o.sessionRoot)
	if err != nil {
		return err
	}
	logger.Debug("watch started", "watched_dirs", watched, "unwatched_dirs", unwatched)
	watcher.Start()
	defer watcher.Stop()

	fallback, err := NewCronFallback(cronSpec, o, logger)
	if err != nil {
		return err
	}
	fallback.Start()
	defer fallback.Stop()

	<-stop
	return nil
}

// resyncChangedProjects maps each changed file to its encoded project
// directory and resyncs each affected project once, deduplicated,
// rather than resyncing per-file.
func (o *Orchestrator) resyncChangedProjects(paths []string, logger ports.Logger) {
	seen := make(map[string]struct{})
	for _, p := range paths {
		encoded := filepath.Base(filepath.Dir(p))
		if _, ok := seen[encoded]; ok {
			continue
		}
		seen[encoded] = struct{}{}

		result, err := o.RunProject(encoded, false)
		if err != nil {
			logger.Error("watch-triggered sync failed", "project", encoded, "error", err)
			continue
		}
		if result.Failed > 0 {
			logger.Warn("watch-triggered sync completed with failures",
				"project", encoded, "succeeded", result.Succeeded, "failed", result.Failed)
		}
	}
}
