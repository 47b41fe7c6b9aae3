// Package search implements full-text search over the message store
// using SQLite FTS5's bm25() ranking function.
package search

import (
	"fmt"
	"strings"

	"github.com/memory-nexus/memory-nexus/internal/errs"
	"github.com/memory-nexus/memory-nexus/internal/store"
)

const (
	DefaultLimit       = 20
	snippetTokenLength = 64
)

// Options narrows a search per spec §4.7. A zero-value Options is
// valid and means "no filters, default limit, case-insensitive".
type Options struct {
	Limit         int
	ProjectFilter string // encoded path equality
	RoleFilter    []string
	SessionFilter string
	SinceDate     string
	BeforeDate    string
	CaseSensitive bool
}

// Result is one matched message with enough context to display and
// to jump back to its session.
type Result struct {
	SessionID string
	MessageID string
	Role      string
	Snippet   string
	Score     float64
	Timestamp string
}

type Service struct {
	db *store.DB
}

func NewService(db *store.DB) *Service { return &Service{db: db} }

// Search runs an FTS5 query and returns results ordered by relevance
// (best first). Raw bm25() scores are normalized to [0,1] with 1 the
// best match; with CaseSensitive set, twice the limit is fetched and
// rows whose content lacks the exact-case query are dropped before
// truncating to the limit.
func (s *Service) Search(query string, opts Options) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errs.ErrEmptyQuery
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	fetchLimit := limit
	if opts.CaseSensitive {
		fetchLimit = limit * 2
	}

	sqlQuery, args := buildQuery(query, opts, fetchLimit)

	rows, err := s.db.Reader().Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedQuery, err)
	}
	defer rows.Close()

	type row struct {
		sessionID string
		messageID string
		role      string
		content   string
		timestamp string
		score     float64
		snippet   string
	}
	var rawRows []row
	for rows.Next() {
		var rr row
		if err := rows.Scan(
			&rr.messageID, &rr.sessionID, &rr.role, &rr.content,
			&rr.timestamp, &rr.score, &rr.snippet,
		); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		rawRows = append(rawRows, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if opts.CaseSensitive {
		filtered := rawRows[:0]
		for _, rr := range rawRows {
			if strings.Contains(rr.content, query) {
				filtered = append(filtered, rr)
			}
		}
		rawRows = filtered
		if len(rawRows) > limit {
			rawRows = rawRows[:limit]
		}
	}

	scores := make([]float64, len(rawRows))
	for i, rr := range rawRows {
		scores[i] = rr.score
	}
	normalized := normalizeScores(scores)

	results := make([]Result, len(rawRows))
	for i, rr := range rawRows {
		results[i] = Result{
			SessionID: rr.sessionID,
			MessageID: rr.messageID,
			Role:      rr.role,
			Snippet:   rr.snippet,
			Score:     normalized[i],
			Timestamp: rr.timestamp,
		}
	}
	return results, nil
}

func buildQuery(query string, opts Options, fetchLimit int) (string, []any) {
	needsSessionJoin := opts.ProjectFilter != ""

	sel := fmt.Sprintf(
		`SELECT m.id, m.session_id, m.role, m.content, m.timestamp,
			bm25(messages_fts) AS score,
			snippet(messages_fts, 0, '<mark>', '</mark>', '...', %d) AS snip
		 FROM messages_fts
		 JOIN messages_meta m ON m.rowid = messages_fts.rowid`,
		snippetTokenLength,
	)
	if needsSessionJoin {
		sel += "\n\t\t JOIN sessions sess ON sess.id = m.session_id"
	}

	where := []string{"messages_fts MATCH ?"}
	args := []any{query}

	if opts.ProjectFilter != "" {
		where = append(where, "sess.encoded_path = ?")
		args = append(args, opts.ProjectFilter)
	}
	if len(opts.RoleFilter) == 1 {
		where = append(where, "m.role = ?")
		args = append(args, opts.RoleFilter[0])
	} else if len(opts.RoleFilter) > 1 {
		placeholders := strings.Repeat(",?", len(opts.RoleFilter))[1:]
		where = append(where, "m.role IN ("+placeholders+")")
		for _, r := range opts.RoleFilter {
			args = append(args, r)
		}
	}
	if opts.SessionFilter != "" {
		where = append(where, "m.session_id = ?")
		args = append(args, opts.SessionFilter)
	}
	if opts.SinceDate != "" {
		where = append(where, "m.timestamp >= ?")
		args = append(args, opts.SinceDate)
	}
	if opts.BeforeDate != "" {
		where = append(where, "m.timestamp < ?")
		args = append(args, opts.BeforeDate)
	}

	full := sel + "\n\t\t WHERE " + strings.Join(where, " AND ") +
		"\n\t\t ORDER BY score ASC LIMIT ?"
	args = append(args, fetchLimit)
	return full, args
}

// normalizeScores maps raw BM25 scores (lower is better, unbounded)
// to [0,1] where higher is better. A single row, or a set of rows
// with identical scores, normalizes to all 1.0 rather than dividing
// by zero.
func normalizeScores(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	min, max := scores[0], scores[0]
	for _, s := range scores {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	if len(scores) == 1 || max == min {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	for i, s := range scores {
		out[i] = (max - s) / (max - min)
	}
	return out
}
