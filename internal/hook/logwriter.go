package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// rotatingWriteSyncer implements zapcore.WriteSyncer for the hook's
// append-only JSON-lines log. Unlike zap's usual size-based rotation
// companions, rotation here is driven purely by the current file's
// mtime versus a retention window: if the file on disk is older than
// retentionDays, it is renamed to "sync.log.YYYY-MM-DD" before the
// next write lands in a fresh file. Writes that fail are swallowed —
// logging must never be the reason a sync fails.
type rotatingWriteSyncer struct {
	path          string
	retentionDays int
	now           func() time.Time

	mu   sync.Mutex
	file *os.File
}

func newRotatingWriteSyncer(path string, retentionDays int) *rotatingWriteSyncer {
	return &rotatingWriteSyncer{path: path, retentionDays: retentionDays, now: time.Now}
}

func (w *rotatingWriteSyncer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotateIfStale(); err != nil {
		return 0, nil
	}
	if w.file == nil {
		if err := w.openLocked(); err != nil {
			return 0, nil
		}
	}
	n, err := w.file.Write(p)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (w *rotatingWriteSyncer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

func (w *rotatingWriteSyncer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *rotatingWriteSyncer) rotateIfStale() error {
	info, err := os.Stat(w.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	cutoff := w.now().AddDate(0, 0, -w.retentionDays)
	if info.ModTime().After(cutoff) {
		return nil
	}

	if w.file != nil {
		w.file.Close()
		w.file = nil
	}
	rotated := w.path + "." + info.ModTime().Format("2006-01-02")
	return os.Rename(w.path, rotated)
}

func (w *rotatingWriteSyncer) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o700); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	w.file = f
	return nil
}
