// Package stats computes point-in-time aggregate statistics over the
// session store for display in the status/stats command.
package stats

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/memory-nexus/memory-nexus/internal/store"
)

const DefaultProjectLimit = 10

// ProjectBreakdown is one row of the per-project rollup.
type ProjectBreakdown struct {
	ProjectName  string
	SessionCount int
	MessageCount int
}

// Totals bundles the whole-database and per-project numbers returned
// by a single Collect call.
type Totals struct {
	TotalSessions int
	TotalMessages int
	TotalToolUses int
	DatabaseSize  int64
	Breakdown     []ProjectBreakdown
}

// DatabaseSizeHuman renders DatabaseSize using base-2 units, matching
// how the rest of the CLI displays file sizes.
func (t Totals) DatabaseSizeHuman() string {
	return humanize.IBytes(uint64(t.DatabaseSize))
}

type Service struct {
	db *store.DB
}

func NewService(db *store.DB) *Service { return &Service{db: db} }

// Collect does a single pass over the database and returns totals.
// The per-project breakdown is capped to projectLimit rows (most
// sessions first); a non-positive projectLimit means
// DefaultProjectLimit. TotalSessions/TotalMessages are always the sum
// over the returned breakdown rows, so they cover only those projects
// when the breakdown is truncated. Database size and tool-use totals
// always reflect the whole database regardless of the project limit.
func (s *Service) Collect(projectLimit int) (Totals, error) {
	if projectLimit <= 0 {
		projectLimit = DefaultProjectLimit
	}

	var t Totals
	reader := s.db.Reader()

	if err := reader.QueryRow(`SELECT count(*) FROM tool_uses`).Scan(&t.TotalToolUses); err != nil {
		return Totals{}, fmt.Errorf("counting tool uses: %w", err)
	}

	size, err := s.db.Size()
	if err != nil {
		return Totals{}, err
	}
	t.DatabaseSize = size

	rows, err := reader.Query(
		`SELECT project_name, count(*) AS sessions, COALESCE(SUM(message_count), 0) AS messages
		 FROM sessions
		 GROUP BY project_name
		 ORDER BY sessions DESC
		 LIMIT ?`,
		projectLimit,
	)
	if err != nil {
		return Totals{}, fmt.Errorf("computing project breakdown: %w", err)
	}
	defer rows.Close()

	var breakdownSessions, breakdownMessages int
	for rows.Next() {
		var b ProjectBreakdown
		if err := rows.Scan(&b.ProjectName, &b.SessionCount, &b.MessageCount); err != nil {
			return Totals{}, fmt.Errorf("scanning project breakdown row: %w", err)
		}
		t.Breakdown = append(t.Breakdown, b)
		breakdownSessions += b.SessionCount
		breakdownMessages += b.MessageCount
	}
	if err := rows.Err(); err != nil {
		return Totals{}, err
	}

	t.TotalSessions = breakdownSessions
	t.TotalMessages = breakdownMessages
	return t, nil
}
