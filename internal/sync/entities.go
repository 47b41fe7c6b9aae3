package sync

import (
	"database/sql"

	"github.com/memory-nexus/memory-nexus/internal/events"
	"github.com/memory-nexus/memory-nexus/internal/store"
)

// filePathInputKeys are the tool-input fields that name a file the
// tool operated on, across the handful of tool names a host is likely
// to emit. Conservative on purpose: a key that isn't here is simply
// not extracted, rather than guessed at.
var filePathInputKeys = []string{"file_path", "path", "notebook_path"}

// recordFileEntity extracts a "file" entity from a tool use's input
// when one of filePathInputKeys names a non-empty string, links it to
// the owning session, and records a session->file touch edge. A tool
// use with no recognizable file argument is a no-op, not an error.
func (o *Orchestrator) recordFileEntity(tx *sql.Tx, sessionID string, tu events.ToolUse) error {
	path := firstStringInput(tu.Input, filePathInputKeys)
	if path == "" {
		return nil
	}

	entity, err := o.entities.SaveEntity(tx, store.Entity{
		Type:       store.EntityTypeFile,
		Name:       path,
		Confidence: 0.9,
	})
	if err != nil {
		return err
	}
	if err := o.entities.LinkSessionEntity(tx, sessionID, entity.ID, 1); err != nil {
		return err
	}
	return o.links.Upsert(tx, store.Link{
		SourceType:   "session",
		SourceID:     sessionID,
		TargetType:   "file",
		TargetID:     path,
		Relationship: "touched",
		Weight:       1,
	})
}

func firstStringInput(input map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := input[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
