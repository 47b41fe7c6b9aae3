package store

import (
	"database/sql"
	"fmt"
)

// ToolUseRepository persists tool invocations and their eventual
// outcomes. A tool_use row is created pending and later transitioned
// to success or error by a matching tool_result event within the
// same session.
type ToolUseRepository struct{ db *DB }

func NewToolUseRepository(db *DB) *ToolUseRepository { return &ToolUseRepository{db: db} }

func (r *ToolUseRepository) Insert(tx *sql.Tx, t ToolUse) error {
	_, err := tx.Exec(
		`INSERT INTO tool_uses (id, session_id, name, input, status, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		t.ID, t.SessionID, t.Name, t.Input, ToolUseStatusPending, t.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("inserting tool use %s: %w", t.ID, err)
	}
	return nil
}

// Resolve transitions a tool_use row from pending to its final
// status once the matching result arrives. A tool_result with no
// corresponding tool_use (out-of-order or truncated file) is a no-op:
// there is nothing to update.
func (r *ToolUseRepository) Resolve(tx *sql.Tx, toolUseID, result string, isError bool) error {
	status := ToolUseStatusSuccess
	if isError {
		status = ToolUseStatusError
	}
	_, err := tx.Exec(
		`UPDATE tool_uses SET status = ?, result = ? WHERE id = ?`,
		status, result, toolUseID,
	)
	if err != nil {
		return fmt.Errorf("resolving tool use %s: %w", toolUseID, err)
	}
	return nil
}

func (r *ToolUseRepository) CountAll() (int, error) {
	var n int
	err := r.db.Reader().QueryRow(`SELECT count(*) FROM tool_uses`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting tool uses: %w", err)
	}
	return n, nil
}
