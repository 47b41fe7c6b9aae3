package store

import (
	"database/sql"
	"fmt"
)

// LinkRepository persists typed edges between arbitrary (type, id)
// entities, e.g. a session linking to a file it touched or a command
// it ran. Equality is the full composite key; Upsert is idempotent.
type LinkRepository struct{ db *DB }

func NewLinkRepository(db *DB) *LinkRepository { return &LinkRepository{db: db} }

func (r *LinkRepository) Upsert(tx *sql.Tx, l Link) error {
	_, err := tx.Exec(
		`INSERT INTO links (source_type, source_id, target_type, target_id, relationship, weight)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_type, source_id, target_type, target_id, relationship) DO NOTHING`,
		l.SourceType, l.SourceID, l.TargetType, l.TargetID, l.Relationship, l.Weight,
	)
	if err != nil {
		return fmt.Errorf("upserting link %s:%s -> %s:%s: %w",
			l.SourceType, l.SourceID, l.TargetType, l.TargetID, err)
	}
	return nil
}

// WithWeight behaves like Upsert but also overwrites weight on an
// existing row, for callers that need to revise a link's strength
// rather than merely assert its existence.
func (r *LinkRepository) WithWeight(tx *sql.Tx, l Link) error {
	_, err := tx.Exec(
		`INSERT INTO links (source_type, source_id, target_type, target_id, relationship, weight)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_type, source_id, target_type, target_id, relationship) DO UPDATE SET
			weight = excluded.weight`,
		l.SourceType, l.SourceID, l.TargetType, l.TargetID, l.Relationship, l.Weight,
	)
	if err != nil {
		return fmt.Errorf("updating weight for link %s:%s -> %s:%s: %w",
			l.SourceType, l.SourceID, l.TargetType, l.TargetID, err)
	}
	return nil
}
