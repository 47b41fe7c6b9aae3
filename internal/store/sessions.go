package store

import (
	"database/sql"
	"fmt"
)

// SessionRepository persists and retrieves session rows.
type SessionRepository struct{ db *DB }

func NewSessionRepository(db *DB) *SessionRepository { return &SessionRepository{db: db} }

// Upsert inserts a session or, if one with the same id already
// exists, leaves its immutable fields (encoded/decoded path,
// start_time) untouched while letting later calls within the same
// sync still update mutable fields via the dedicated setters below.
func (r *SessionRepository) Upsert(tx *sql.Tx, s Session) error {
	_, err := tx.Exec(
		`INSERT INTO sessions (id, encoded_path, decoded_path, project_name, start_time, cwd, git_branch)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		s.ID, s.EncodedPath, s.DecodedPath, s.ProjectName, s.StartTime, s.Cwd, s.GitBranch,
	)
	if err != nil {
		return fmt.Errorf("upserting session %s: %w", s.ID, err)
	}
	return nil
}

func (r *SessionRepository) SetSummary(tx *sql.Tx, sessionID, summary string) error {
	_, err := tx.Exec(`UPDATE sessions SET summary = ? WHERE id = ?`, summary, sessionID)
	if err != nil {
		return fmt.Errorf("setting summary for session %s: %w", sessionID, err)
	}
	return nil
}

func (r *SessionRepository) SetMetadata(tx *sql.Tx, sessionID string, cwd, gitBranch *string) error {
	_, err := tx.Exec(
		`UPDATE sessions SET
			cwd = COALESCE(?, cwd),
			git_branch = COALESCE(?, git_branch)
		 WHERE id = ?`,
		cwd, gitBranch, sessionID,
	)
	if err != nil {
		return fmt.Errorf("setting metadata for session %s: %w", sessionID, err)
	}
	return nil
}

func (r *SessionRepository) SetEndTime(tx *sql.Tx, sessionID, endTime string) error {
	_, err := tx.Exec(`UPDATE sessions SET end_time = ? WHERE id = ?`, endTime, sessionID)
	if err != nil {
		return fmt.Errorf("setting end_time for session %s: %w", sessionID, err)
	}
	return nil
}

// SetMessageCount is called once, on EOF, with the count of messages
// persisted for the session (MessageRepository.CountForSession),
// including rows kept from earlier sync passes.
func (r *SessionRepository) SetMessageCount(tx *sql.Tx, sessionID string, count int) error {
	_, err := tx.Exec(`UPDATE sessions SET message_count = ? WHERE id = ?`, count, sessionID)
	if err != nil {
		return fmt.Errorf("setting message_count for session %s: %w", sessionID, err)
	}
	return nil
}

func (r *SessionRepository) Get(sessionID string) (Session, error) {
	row := r.db.Reader().QueryRow(
		`SELECT id, encoded_path, decoded_path, project_name, start_time, end_time,
			message_count, summary, cwd, git_branch
		 FROM sessions WHERE id = ?`, sessionID,
	)
	return scanSession(row)
}

func scanSession(rs interface{ Scan(...any) error }) (Session, error) {
	var s Session
	err := rs.Scan(
		&s.ID, &s.EncodedPath, &s.DecodedPath, &s.ProjectName, &s.StartTime, &s.EndTime,
		&s.MessageCount, &s.Summary, &s.Cwd, &s.GitBranch,
	)
	return s, err
}
