package stats

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memory-nexus/memory-nexus/internal/store"
)

func seedDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sessions := store.NewSessionRepository(db)
	messages := store.NewMessageRepository(db)
	toolUses := store.NewToolUseRepository(db)

	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		for i, proj := range []string{"a", "a", "b", "c"} {
			id := string(rune('1' + i))
			if err := sessions.Upsert(tx, store.Session{ID: id, EncodedPath: proj, DecodedPath: "/" + proj, ProjectName: proj}); err != nil {
				return err
			}
			if err := messages.Insert(tx, store.Message{ID: "m" + id, SessionID: id, Role: "user", Content: "hi"}); err != nil {
				return err
			}
			if err := sessions.SetMessageCount(tx, id, 1); err != nil {
				return err
			}
		}
		return toolUses.Insert(tx, store.ToolUse{ID: "t1", SessionID: "1", Name: "Bash"})
	}))
	return db
}

func TestCollectTotals(t *testing.T) {
	svc := NewService(seedDB(t))
	totals, err := svc.Collect(0)
	require.NoError(t, err)

	assert.Equal(t, 4, totals.TotalSessions)
	assert.Equal(t, 4, totals.TotalMessages)
	assert.Equal(t, 1, totals.TotalToolUses)
	assert.Positive(t, totals.DatabaseSize)
	assert.NotEmpty(t, totals.DatabaseSizeHuman())
}

func TestCollectBreakdownOrderedBySessionCountDesc(t *testing.T) {
	svc := NewService(seedDB(t))
	totals, err := svc.Collect(0)
	require.NoError(t, err)

	require.NotEmpty(t, totals.Breakdown)
	assert.Equal(t, "a", totals.Breakdown[0].ProjectName)
	assert.Equal(t, 2, totals.Breakdown[0].SessionCount)
}

func TestCollectProjectLimitTruncatesAndTotalsFollowBreakdown(t *testing.T) {
	svc := NewService(seedDB(t))
	totals, err := svc.Collect(1)
	require.NoError(t, err)

	require.Len(t, totals.Breakdown, 1)
	assert.Equal(t, totals.Breakdown[0].SessionCount, totals.TotalSessions)
	assert.Equal(t, totals.Breakdown[0].MessageCount, totals.TotalMessages)
	assert.Equal(t, 1, totals.TotalToolUses, "tool-use total stays whole-database regardless of project limit")
}
