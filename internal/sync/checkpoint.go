package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Checkpoint records progress through a multi-file sync run so an
// interrupted process can resume without re-processing files it
// already finished. It is ephemeral: deleted on clean completion of
// the run it belongs to.
type Checkpoint struct {
	RunID               string   `json:"runId"`
	CompletedSessionIDs []string `json:"completedSessionIds"`
}

// NewCheckpoint starts a fresh checkpoint for a new run.
func NewCheckpoint() Checkpoint {
	return Checkpoint{RunID: uuid.NewString()}
}

// Done reports whether sessionID is already recorded complete in
// this checkpoint.
func (c Checkpoint) Done(sessionID string) bool {
	for _, id := range c.CompletedSessionIDs {
		if id == sessionID {
			return true
		}
	}
	return false
}

// MarkDone appends sessionID to the completed set.
func (c Checkpoint) MarkDone(sessionID string) Checkpoint {
	c.CompletedSessionIDs = append(c.CompletedSessionIDs, sessionID)
	return c
}

// LoadCheckpoint reads a checkpoint file, returning the zero value
// and no error if it does not exist (there is simply nothing to
// resume from).
func LoadCheckpoint(path string) (Checkpoint, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Checkpoint{}, nil
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("reading checkpoint: %w", err)
	}
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return Checkpoint{}, fmt.Errorf("parsing checkpoint: %w", err)
	}
	return c, nil
}

// SaveCheckpoint writes the checkpoint atomically: it writes to a
// temp file in the same directory, then renames over the destination,
// so a crash mid-write never leaves a truncated checkpoint.
func SaveCheckpoint(path string, c Checkpoint) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp checkpoint: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp checkpoint: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming checkpoint into place: %w", err)
	}
	return nil
}

// DeleteCheckpoint removes the checkpoint file. Deleting a checkpoint
// that does not exist is not an error: clean completion and "already
// clean" are indistinguishable to the caller and both are success.
func DeleteCheckpoint(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}
