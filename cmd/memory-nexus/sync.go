package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/memory-nexus/memory-nexus/internal/config"
	"github.com/memory-nexus/memory-nexus/internal/errs"
	"github.com/memory-nexus/memory-nexus/internal/hook"
	"github.com/memory-nexus/memory-nexus/internal/ports"
	"github.com/memory-nexus/memory-nexus/internal/store"
	"github.com/memory-nexus/memory-nexus/internal/sync"
)

const sessionRootDirName = "host-sessions"

func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	session := fs.String("session", "", "Sync only this session id")
	project := fs.String("project", "", "Sync only this encoded project directory")
	force := fs.Bool("force", false, "Reprocess files even if unchanged")
	quiet := fs.Bool("quiet", false, "Daemonize before syncing; without --session or --project, then stay resident watching for further changes; used by the hook path")
	if err := fs.Parse(args); err != nil {
		os.Exit(errs.ExitValidation)
	}

	cfg := loadConfig()

	if *quiet {
		isParent, release, err := hook.Daemonize(cfg)
		if err != nil {
			log.Printf("daemonizing sync: %v", err)
			os.Exit(errs.ExitOK)
		}
		if isParent {
			os.Exit(errs.ExitOK)
		}
		defer release()
	}

	logger, closeLogger, err := hook.NewLogger(cfg)
	if err != nil {
		log.Fatalf("starting logger: %v", err)
	}
	defer closeLogger()
	portsLogger := hook.NewPortsLogger(logger)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitCode(err))
	}
	defer db.Close()

	sessionRoot := os.Getenv("MEMORY_NEXUS_SESSIONS")
	if sessionRoot == "" {
		home, _ := os.UserHomeDir()
		sessionRoot = home + "/" + sessionRootDirName
	}

	orch := sync.New(db, sessionRoot, cfg.CheckpointPath(), progressSink(*quiet), portsLogger)

	if cfg.RecoveryOnStartup {
		if _, err := orch.RunRecovery(); err != nil {
			portsLogger.Warn("startup recovery scan failed", "error", err)
		}
	}

	result, err := dispatchSync(orch, *session, *project, *force)
	if err != nil {
		if !*quiet {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(errs.ExitCode(err))
	}

	if !*quiet {
		fmt.Printf("synced %d, failed %d\n", result.Succeeded, result.Failed)
		if cfg.ShowFailures {
			for _, w := range result.Warnings {
				fmt.Fprintln(os.Stderr, w)
			}
		}
	}

	// Only a daemonized full-tree sync stays resident watching for
	// further changes. A hook-triggered quiet sync is scoped to one
	// session (spawnDetachedSync always passes --session) and must
	// still exit after its single pass, or every SessionEnd/PreCompact
	// event would leave behind another permanent watcher process.
	if *quiet && *session == "" && *project == "" && cfg.WatchEnabled {
		runWatch(orch, cfg, portsLogger)
		return
	}

	if result.Failed > 0 {
		os.Exit(errs.ExitSyncFailure)
	}
}

// runWatch blocks the daemonized sync process until it receives
// SIGTERM or SIGINT, keeping the file watcher and cron fallback
// running in the background the whole time.
func runWatch(orch *sync.Orchestrator, cfg config.Config, logger ports.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)
	stop := make(chan struct{})
	go func() {
		<-sig
		close(stop)
	}()

	debounce := time.Duration(cfg.WatchDebounceMs) * time.Millisecond
	if err := orch.Watch(debounce, cfg.CronSchedule, logger, stop); err != nil {
		logger.Error("watch mode failed", "error", err)
		os.Exit(errs.ExitCode(err))
	}
}

func dispatchSync(orch *sync.Orchestrator, session, project string, force bool) (sync.Result, error) {
	switch {
	case session != "":
		return orch.RunSession(session, force)
	case project != "":
		return orch.RunProject(project, force)
	default:
		return orch.RunAll(force)
	}
}

// progressSink returns a no-op sink when quiet, since a detached
// child with no terminal has nowhere to report progress to.
func progressSink(quiet bool) ports.ProgressSink {
	if quiet {
		return ports.NoopProgressSink{}
	}
	return stderrProgress{}
}

type stderrProgress struct{}

func (stderrProgress) Report(p ports.Progress) {
	if p.FilesTotal == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\r  %d/%d files", p.FilesDone, p.FilesTotal)
}
