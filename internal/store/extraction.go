package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ExtractionStateRepository tracks the per-file state machine
// (pending -> in_progress -> complete|error) that drives incremental
// and resumable sync.
type ExtractionStateRepository struct{ db *DB }

func NewExtractionStateRepository(db *DB) *ExtractionStateRepository {
	return &ExtractionStateRepository{db: db}
}

// Get returns the extraction state for a session file, or
// sql.ErrNoRows if none exists yet.
func (r *ExtractionStateRepository) Get(sessionFile string) (ExtractionState, error) {
	row := r.db.Reader().QueryRow(
		`SELECT session_file, session_id, status, mtime, size,
			messages_extracted, error_message, completed_at
		 FROM extraction_state WHERE session_file = ?`, sessionFile,
	)
	var s ExtractionState
	err := row.Scan(
		&s.SessionFile, &s.SessionID, &s.Status, &s.Mtime, &s.Size,
		&s.MessagesExtracted, &s.ErrorMessage, &s.CompletedAt,
	)
	if err != nil {
		return ExtractionState{}, err
	}
	return s, nil
}

// MarkInProgress transitions a file to in_progress, creating its row
// if this is the first time the file has been seen.
func (r *ExtractionStateRepository) MarkInProgress(tx *sql.Tx, sessionFile, sessionID string) error {
	_, err := tx.Exec(
		`INSERT INTO extraction_state (session_file, session_id, status)
		 VALUES (?, ?, ?)
		 ON CONFLICT(session_file) DO UPDATE SET
			session_id = excluded.session_id,
			status = excluded.status,
			error_message = NULL`,
		sessionFile, sessionID, ExtractionStatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("marking %s in_progress: %w", sessionFile, err)
	}
	return nil
}

// MarkComplete finalizes a file's extraction: status becomes
// complete, the message count and (mtime, size) fingerprint used by
// the skip check are stored, and completed_at is stamped.
func (r *ExtractionStateRepository) MarkComplete(tx *sql.Tx, sessionFile string, mtime, size int64, messagesExtracted int, completedAt string) error {
	_, err := tx.Exec(
		`UPDATE extraction_state SET
			status = ?, mtime = ?, size = ?,
			messages_extracted = ?, completed_at = ?, error_message = NULL
		 WHERE session_file = ?`,
		ExtractionStatusComplete, mtime, size, messagesExtracted, completedAt, sessionFile,
	)
	if err != nil {
		return fmt.Errorf("marking %s complete: %w", sessionFile, err)
	}
	return nil
}

// MarkError records a failed extraction attempt, creating the row if
// the failure happened before MarkInProgress ever ran (e.g. the file
// could not even be stat'd). Unlike MarkComplete and MarkInProgress
// this runs outside the file's own (already rolled-back) transaction,
// against the writer pool directly.
func (r *ExtractionStateRepository) MarkError(sessionFile, errMsg string) error {
	return r.db.Update(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO extraction_state (session_file, status, error_message)
			 VALUES (?, ?, ?)
			 ON CONFLICT(session_file) DO UPDATE SET
				status = excluded.status,
				error_message = excluded.error_message`,
			sessionFile, ExtractionStatusError, errMsg,
		)
		return err
	})
}

// NeedsProcessing reports whether a file with the given (mtime, size)
// fingerprint must be (re-)processed. It returns false, meaning the
// file can be skipped, only when the file was previously marked
// complete with the identical fingerprint.
func (r *ExtractionStateRepository) NeedsProcessing(sessionFile string, mtime, size int64) (bool, error) {
	state, err := r.Get(sessionFile)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking extraction state for %s: %w", sessionFile, err)
	}
	if state.Status != ExtractionStatusComplete {
		return true, nil
	}
	if state.Mtime == nil || state.Size == nil || *state.Mtime != mtime || *state.Size != size {
		return true, nil
	}
	return false, nil
}

// LastSyncTime returns the most recent completed_at across every
// file, or the empty string if nothing has ever completed.
func (r *ExtractionStateRepository) LastSyncTime() (string, error) {
	var t sql.NullString
	err := r.db.Reader().QueryRow(
		`SELECT MAX(completed_at) FROM extraction_state WHERE status = ?`, ExtractionStatusComplete,
	).Scan(&t)
	if err != nil {
		return "", fmt.Errorf("reading last sync time: %w", err)
	}
	return t.String, nil
}

// FilesNeedingRecovery returns the session files recorded as never
// extracted (pending, or left in_progress by an interrupted run) or
// left in error, for the startup recovery scan.
func (r *ExtractionStateRepository) FilesNeedingRecovery() ([]string, error) {
	rows, err := r.db.Reader().Query(
		`SELECT session_file FROM extraction_state WHERE status IN (?, ?, ?)`,
		ExtractionStatusPending, ExtractionStatusInProgress, ExtractionStatusError,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recovery candidates: %w", err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scanning recovery candidate: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
