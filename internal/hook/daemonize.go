package hook

import (
	"fmt"

	"github.com/sevlyar/go-daemon"

	"github.com/memory-nexus/memory-nexus/internal/config"
)

// Daemonize re-executes the current process as a detached background
// process, fully dissociated from the hook's parent. Call it once,
// at the very start of the sync command's --quiet path. It returns
// isParent=true in the short-lived process that performed the fork —
// that process should exit(0) immediately without doing any sync
// work — and isParent=false in the detached child that should
// proceed with the actual sync. release must be called by the child
// before it exits, to clean up daemon bookkeeping.
func Daemonize(cfg config.Config) (isParent bool, release func(), err error) {
	cntxt := &daemon.Context{
		LogFileName: cfg.LogPath(),
		LogFilePerm: 0o600,
		WorkDir:     "/",
		Umask:       0o027,
	}

	child, err := cntxt.Reborn()
	if err != nil {
		return false, func() {}, fmt.Errorf("daemonizing sync process: %w", err)
	}
	if child != nil {
		return true, func() {}, nil
	}
	return false, func() { _ = cntxt.Release() }, nil
}
