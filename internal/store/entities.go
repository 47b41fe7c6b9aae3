package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/memory-nexus/memory-nexus/internal/errs"
)

// EntityRepository persists entities extracted from session content
// (concepts, files, decisions, terms) and their relationships to
// sessions and to each other.
type EntityRepository struct{ db *DB }

func NewEntityRepository(db *DB) *EntityRepository { return &EntityRepository{db: db} }

// SaveEntity inserts a new entity, or, when one with the same
// (type, lower(name)) already exists, raises its confidence to
// max(existing, new) without lowering it. The returned Entity always
// reflects the row's final state.
//
// A "decision" entity must carry {subject, decision} in its metadata
// per spec; SaveEntity rejects one that doesn't rather than silently
// persisting an entity downstream consumers can't rely on.
func (r *EntityRepository) SaveEntity(tx *sql.Tx, e Entity) (Entity, error) {
	if e.Type == EntityTypeDecision {
		if err := validateDecisionMetadata(e.Metadata); err != nil {
			return Entity{}, err
		}
	}

	_, err := tx.Exec(
		`INSERT INTO entities (type, name, metadata, confidence) VALUES (?, ?, ?, ?)
		 ON CONFLICT(type, name_lower) DO UPDATE SET
			confidence = MAX(entities.confidence, excluded.confidence),
			metadata = COALESCE(excluded.metadata, entities.metadata)
		 WHERE excluded.confidence > entities.confidence OR excluded.metadata IS NOT NULL`,
		e.Type, e.Name, e.Metadata, e.Confidence,
	)
	if err != nil {
		return Entity{}, fmt.Errorf("saving entity %s/%s: %w", e.Type, e.Name, err)
	}

	var out Entity
	err = tx.QueryRow(
		`SELECT id, type, name, metadata, confidence FROM entities WHERE type = ? AND name_lower = lower(?)`,
		e.Type, e.Name,
	).Scan(&out.ID, &out.Type, &out.Name, &out.Metadata, &out.Confidence)
	if err != nil {
		return Entity{}, fmt.Errorf("reading back entity %s/%s: %w", e.Type, e.Name, err)
	}
	return out, nil
}

// validateDecisionMetadata enforces the decision entity invariant:
// metadata must be a JSON object with non-empty "subject" and
// "decision" string fields.
func validateDecisionMetadata(metadata *string) error {
	if metadata == nil {
		return fmt.Errorf("%w: decision entity missing metadata", errs.ErrInvalidEntity)
	}
	var fields struct {
		Subject  string `json:"subject"`
		Decision string `json:"decision"`
	}
	if err := json.Unmarshal([]byte(*metadata), &fields); err != nil {
		return fmt.Errorf("%w: decision metadata is not a JSON object: %v", errs.ErrInvalidEntity, err)
	}
	if fields.Subject == "" || fields.Decision == "" {
		return fmt.Errorf("%w: decision metadata requires subject and decision", errs.ErrInvalidEntity)
	}
	return nil
}

// LinkSessionEntity records that entityID appeared in sessionID,
// accumulating frequency across repeated calls for the same pair.
func (r *EntityRepository) LinkSessionEntity(tx *sql.Tx, sessionID string, entityID int64, frequency int) error {
	_, err := tx.Exec(
		`INSERT INTO session_entities (session_id, entity_id, frequency)
		 VALUES (?, ?, ?)
		 ON CONFLICT(session_id, entity_id) DO UPDATE SET
			frequency = frequency + excluded.frequency`,
		sessionID, entityID, frequency,
	)
	if err != nil {
		return fmt.Errorf("linking session %s to entity %d: %w", sessionID, entityID, err)
	}
	return nil
}

// LinkEntities records a directed relationship between two entities.
// Idempotent: a repeated call with the same (source, target,
// relationship) is a no-op rather than duplicating or overwriting the
// weight, matching the "ignore on conflict" contract.
func (r *EntityRepository) LinkEntities(tx *sql.Tx, sourceID, targetID int64, relationship string, weight float64) error {
	_, err := tx.Exec(
		`INSERT INTO entity_links (source_entity_id, target_entity_id, relationship, weight)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(source_entity_id, target_entity_id, relationship) DO NOTHING`,
		sourceID, targetID, relationship, weight,
	)
	if err != nil {
		return fmt.Errorf("linking entities %d -> %d: %w", sourceID, targetID, err)
	}
	return nil
}
