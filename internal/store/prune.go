package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// PruneFilter defines criteria for finding sessions to delete.
// Filters combine with AND; at least one must be set. Deletion is
// cascade-only through sessions: messages and tool uses go with a
// deleted session via ON DELETE CASCADE. Links carry no foreign key,
// so links that reference a deleted session id are left in place.
type PruneFilter struct {
	ProjectPath string // substring match against decoded_path
	MaxMessages *int   // message_count <= N
	Before      string // end_time (or start_time) < this ISO timestamp
}

func (f PruneFilter) hasFilters() bool {
	return f.ProjectPath != "" || f.MaxMessages != nil || f.Before != ""
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// FindPruneCandidates returns sessions matching all given filters,
// newest first. Returns an error if no filter is set: an unfiltered
// prune is an explicit "delete everything" and must go through a
// different, more deliberate path than this one.
func (r *SessionRepository) FindPruneCandidates(f PruneFilter) ([]Session, error) {
	if !f.hasFilters() {
		return nil, fmt.Errorf("prune requires at least one filter")
	}

	where := "1=1"
	var args []any

	if f.ProjectPath != "" {
		where += ` AND decoded_path LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(f.ProjectPath)+"%")
	}
	if f.MaxMessages != nil {
		where += " AND message_count <= ?"
		args = append(args, *f.MaxMessages)
	}
	if f.Before != "" {
		where += " AND COALESCE(end_time, start_time) < ?"
		args = append(args, f.Before)
	}

	query := `SELECT id, encoded_path, decoded_path, project_name, start_time, end_time,
			message_count, summary, cwd, git_branch
		FROM sessions WHERE ` + where + `
		ORDER BY COALESCE(end_time, start_time) DESC`

	rows, err := r.db.Reader().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding prune candidates: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning prune candidate: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// DeleteSessions removes the given session ids in a single
// transaction, batched to stay under SQLite's bound-parameter limit.
// Returns the number of session rows actually deleted. Messages and
// tool uses go via the foreign-key ON DELETE CASCADE clauses in the
// schema; links carry no foreign key and are not deleted.
func (r *SessionRepository) DeleteSessions(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	const batchSize = 500
	total := 0
	err := r.db.Update(func(tx *sql.Tx) error {
		for i := 0; i < len(ids); i += batchSize {
			end := i + batchSize
			if end > len(ids) {
				end = len(ids)
			}
			batch := ids[i:end]

			args := make([]any, len(batch))
			for j, id := range batch {
				args[j] = id
			}
			placeholders := strings.Repeat(",?", len(batch))[1:]

			res, err := tx.Exec("DELETE FROM sessions WHERE id IN ("+placeholders+")", args...)
			if err != nil {
				return fmt.Errorf("deleting sessions batch: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("counting deleted sessions: %w", err)
			}
			total += int(n)
		}
		return nil
	})
	return total, err
}
