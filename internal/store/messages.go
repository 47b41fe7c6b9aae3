package store

import (
	"database/sql"
	"fmt"
)

// MessageRepository writes only to messages_meta. The messages_fts
// index is maintained entirely by the triggers installed in
// schemaFTS; this repository never touches messages_fts directly.
type MessageRepository struct{ db *DB }

func NewMessageRepository(db *DB) *MessageRepository { return &MessageRepository{db: db} }

func (r *MessageRepository) Insert(tx *sql.Tx, m Message) error {
	_, err := tx.Exec(
		`INSERT INTO messages_meta (id, session_id, role, content, timestamp, tool_use_ids)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		m.ID, m.SessionID, m.Role, m.Content, m.Timestamp, m.ToolUseIDs,
	)
	if err != nil {
		return fmt.Errorf("inserting message %s: %w", m.ID, err)
	}
	return nil
}

// CountForSession returns the number of messages persisted for a
// session, used by the sync orchestrator to set sessions.message_count
// on EOF.
func (r *MessageRepository) CountForSession(tx *sql.Tx, sessionID string) (int, error) {
	var n int
	err := tx.QueryRow(`SELECT count(*) FROM messages_meta WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting messages for session %s: %w", sessionID, err)
	}
	return n, nil
}
