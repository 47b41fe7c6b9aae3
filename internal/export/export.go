// Package export implements the ExportService (§6): a full-database
// JSON snapshot and its restore, used for backup and for moving a
// database between machines.
package export

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/memory-nexus/memory-nexus/internal/errs"
	"github.com/memory-nexus/memory-nexus/internal/stats"
	"github.com/memory-nexus/memory-nexus/internal/store"
)

const FormatVersion = "1.0"

// Snapshot is the export file v1.0 envelope: a version tag, a
// generation timestamp, the totals a reader can sanity-check without
// loading the arrays, and one array per table.
type Snapshot struct {
	Version          string                   `json:"version"`
	ExportedAt       string                   `json:"exportedAt"`
	Stats            stats.Totals             `json:"stats"`
	Sessions         []store.Session          `json:"sessions"`
	Messages         []store.Message          `json:"messages"`
	ToolUses         []store.ToolUse          `json:"toolUses"`
	Entities         []store.Entity           `json:"entities"`
	Links            []store.Link             `json:"links"`
	SessionEntities  []SessionEntity          `json:"sessionEntities"`
	EntityLinks      []store.EntityLink       `json:"entityLinks"`
	ExtractionStates []store.ExtractionState  `json:"extractionStates"`
}

// SessionEntity mirrors a row in session_entities: the many-to-many
// join between sessions and entities, carrying a per-session mention
// frequency. It has no standalone repository type of its own because
// nothing but export/import needs to read the whole table.
type SessionEntity struct {
	SessionID string `json:"sessionId"`
	EntityID  int64  `json:"entityId"`
	Frequency int    `json:"frequency"`
}

type Service struct {
	db *store.DB
}

func NewService(db *store.DB) *Service { return &Service{db: db} }

// Export collects every row in every table into a Snapshot and writes
// it as JSON to path. exportedAt is supplied by the caller rather than
// computed here, matching §5's "no wall-clock reads inside the core"
// discipline.
func (s *Service) Export(path, exportedAt string) error {
	snap, err := s.collect(exportedAt)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}
	return nil
}

func (s *Service) collect(exportedAt string) (Snapshot, error) {
	snap := Snapshot{Version: FormatVersion, ExportedAt: exportedAt}
	r := s.db.Reader()

	totals, err := stats.NewService(s.db).Collect(0)
	if err != nil {
		return Snapshot{}, fmt.Errorf("collecting stats: %w", err)
	}
	snap.Stats = totals

	if snap.Sessions, err = collectSessions(r); err != nil {
		return Snapshot{}, err
	}
	if snap.Messages, err = collectMessages(r); err != nil {
		return Snapshot{}, err
	}
	if snap.ToolUses, err = collectToolUses(r); err != nil {
		return Snapshot{}, err
	}
	if snap.Entities, err = collectEntities(r); err != nil {
		return Snapshot{}, err
	}
	if snap.Links, err = collectLinks(r); err != nil {
		return Snapshot{}, err
	}
	if snap.SessionEntities, err = collectSessionEntities(r); err != nil {
		return Snapshot{}, err
	}
	if snap.EntityLinks, err = collectEntityLinks(r); err != nil {
		return Snapshot{}, err
	}
	if snap.ExtractionStates, err = collectExtractionStates(r); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Import reads a Snapshot from path and loads it into the database.
// If clearExisting is true, every table named in the snapshot is
// truncated first inside the same transaction, so a failed import
// leaves the prior contents untouched.
func (s *Service) Import(path string, clearExisting bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading export file: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrExportInvalid, err)
	}
	for _, required := range []string{"version", "sessions", "stats"} {
		if _, ok := fields[required]; !ok {
			return fmt.Errorf("%w: missing %s", errs.ErrExportInvalid, required)
		}
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrExportInvalid, err)
	}

	return s.db.Update(func(tx *sql.Tx) error {
		if clearExisting {
			if err := clearTables(tx); err != nil {
				return err
			}
		}
		if err := restoreEntities(tx, snap.Entities); err != nil {
			return err
		}
		if err := restoreSessions(tx, snap.Sessions); err != nil {
			return err
		}
		if err := restoreMessages(tx, snap.Messages); err != nil {
			return err
		}
		if err := restoreToolUses(tx, snap.ToolUses); err != nil {
			return err
		}
		if err := restoreLinks(tx, snap.Links); err != nil {
			return err
		}
		if err := restoreSessionEntities(tx, snap.SessionEntities); err != nil {
			return err
		}
		if err := restoreEntityLinks(tx, snap.EntityLinks); err != nil {
			return err
		}
		return restoreExtractionStates(tx, snap.ExtractionStates)
	})
}

// clearTables truncates every exported table, in child-before-parent
// order so foreign keys never momentarily dangle mid-clear.
func clearTables(tx *sql.Tx) error {
	tables := []string{
		"session_entities", "entity_links", "tool_uses",
		"messages_meta", "links", "extraction_state",
		"sessions", "entities",
	}
	for _, t := range tables {
		if _, err := tx.Exec("DELETE FROM " + t); err != nil {
			return fmt.Errorf("clearing %s: %w", t, err)
		}
	}
	return nil
}
