// Package hook implements the thin, never-fail entrypoint a host
// invokes on session lifecycle events: it decides whether a sync is
// warranted, spawns a detached child to perform it, and exits 0
// unconditionally.
package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/memory-nexus/memory-nexus/internal/config"
)

const (
	EventSessionEnd = "SessionEnd"
	EventPreCompact = "PreCompact"
)

// Payload is the host's hook invocation, decoded from a single JSON
// object on stdin.
type Payload struct {
	HookEventName string `json:"hook_event_name"`
	SessionID     string `json:"session_id"`
	Trigger       string `json:"trigger,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Run executes the full hook contract: decode stdin, gate on config,
// spawn a detached sync child, and always return nil. Every internal
// error is logged and absorbed — Run's return value exists only so
// callers can distinguish "ran, logged a problem" from "panicked",
// which should never happen.
func Run(stdin io.Reader, cfg config.Config, logger *zap.Logger, selfPath string) error {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("hook panic recovered", zap.Any("panic", r))
		}
	}()

	var payload Payload
	if err := json.NewDecoder(stdin).Decode(&payload); err != nil {
		logger.Warn("hook payload decode failed", zap.Error(err))
		return nil
	}

	if payload.HookEventName == EventPreCompact && !cfg.SyncOnCompaction {
		return nil
	}
	if !cfg.AutoSync {
		return nil
	}
	if payload.SessionID == "" {
		logger.Warn("hook payload missing session_id", zap.String("hookEvent", payload.HookEventName))
		return nil
	}

	if err := spawnDetachedSync(selfPath, payload.SessionID, cfg); err != nil {
		logger.Error("spawning detached sync failed", zap.Error(err), zap.String("sessionId", payload.SessionID))
		return nil
	}

	logger.Info("hook dispatched sync",
		zap.String("sessionId", payload.SessionID),
		zap.String("hookEvent", payload.HookEventName),
	)
	return nil
}

// spawnDetachedSync launches `selfPath sync --session <id> --quiet`
// and releases the child reference immediately without waiting on
// it. The child is responsible for its own detachment (it calls
// Daemonize on startup when --quiet is set); this function only
// needs to make sure the hook's own process doesn't block on it.
func spawnDetachedSync(selfPath, sessionID string, cfg config.Config) error {
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath()), 0o700); err != nil {
		return fmt.Errorf("creating log directory for detached child: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file for detached child: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(selfPath, "sync", "--session", sessionID, "--quiet")
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting detached sync: %w", err)
	}
	return cmd.Process.Release()
}
