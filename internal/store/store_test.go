package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memory-nexus/memory-nexus/internal/errs"
)

// openTestDB opens a fresh file-backed database. A real file is used
// rather than ":memory:" because each pooled connection to
// ":memory:" would otherwise see its own empty database.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAppliesSchemaIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idem.db")
	db1, err := Open(path)
	require.NoError(t, err)
	db1.Close()

	db2, err := Open(path)
	require.NoError(t, err)
	defer db2.Close()

	var tables int
	err = db2.Reader().QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='sessions'`,
	).Scan(&tables)
	require.NoError(t, err)
	assert.Equal(t, 1, tables)
}

func TestFTSTriggersSyncOnInsertUpdateDelete(t *testing.T) {
	db := openTestDB(t)
	sessions := NewSessionRepository(db)
	messages := NewMessageRepository(db)

	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		if err := sessions.Upsert(tx, Session{ID: "s1", EncodedPath: "p", DecodedPath: "/p"}); err != nil {
			return err
		}
		return messages.Insert(tx, Message{ID: "m1", SessionID: "s1", Role: "user", Content: "hello world"})
	}))

	var hits int
	require.NoError(t, db.Reader().QueryRow(
		`SELECT count(*) FROM messages_fts WHERE messages_fts MATCH 'hello'`,
	).Scan(&hits))
	assert.Equal(t, 1, hits)

	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE messages_meta SET content = ? WHERE id = ?`, "goodbye", "m1")
		return err
	}))

	require.NoError(t, db.Reader().QueryRow(
		`SELECT count(*) FROM messages_fts WHERE messages_fts MATCH 'hello'`,
	).Scan(&hits))
	assert.Equal(t, 0, hits)

	require.NoError(t, db.Reader().QueryRow(
		`SELECT count(*) FROM messages_fts WHERE messages_fts MATCH 'goodbye'`,
	).Scan(&hits))
	assert.Equal(t, 1, hits)

	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM messages_meta WHERE id = ?`, "m1")
		return err
	}))
	require.NoError(t, db.Reader().QueryRow(
		`SELECT count(*) FROM messages_fts WHERE messages_fts MATCH 'goodbye'`,
	).Scan(&hits))
	assert.Equal(t, 0, hits)
}

func TestSaveEntityRaisesConfidenceButNeverLowersIt(t *testing.T) {
	db := openTestDB(t)
	entities := NewEntityRepository(db)

	var first, second, third Entity
	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		var err error
		first, err = entities.SaveEntity(tx, Entity{Type: EntityTypeFile, Name: "main.go", Confidence: 0.5})
		return err
	}))
	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		var err error
		second, err = entities.SaveEntity(tx, Entity{Type: EntityTypeFile, Name: "MAIN.GO", Confidence: 0.9})
		return err
	}))
	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		var err error
		third, err = entities.SaveEntity(tx, Entity{Type: EntityTypeFile, Name: "main.go", Confidence: 0.1})
		return err
	}))

	assert.Equal(t, first.ID, second.ID, "case-insensitive name collision should be the same row")
	assert.Equal(t, 0.9, second.Confidence)
	assert.Equal(t, 0.9, third.Confidence, "confidence must never decrease")
}

func TestSaveEntityRejectsDecisionWithoutMetadata(t *testing.T) {
	db := openTestDB(t)
	entities := NewEntityRepository(db)

	err := db.Update(func(tx *sql.Tx) error {
		_, err := entities.SaveEntity(tx, Entity{Type: EntityTypeDecision, Name: "pick a store", Confidence: 0.5})
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidEntity)
}

func TestSaveEntityAcceptsDecisionWithSubjectAndDecision(t *testing.T) {
	db := openTestDB(t)
	entities := NewEntityRepository(db)

	metadata := `{"subject":"storage engine","decision":"use SQLite"}`
	var saved Entity
	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		var err error
		saved, err = entities.SaveEntity(tx, Entity{
			Type: EntityTypeDecision, Name: "storage engine choice",
			Metadata: &metadata, Confidence: 0.5,
		})
		return err
	}))
	require.NotNil(t, saved.Metadata)
	assert.JSONEq(t, metadata, *saved.Metadata)
}

func TestLinkSessionEntityAccumulatesFrequency(t *testing.T) {
	db := openTestDB(t)
	sessions := NewSessionRepository(db)
	entities := NewEntityRepository(db)

	var e Entity
	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		if err := sessions.Upsert(tx, Session{ID: "s1", EncodedPath: "p", DecodedPath: "/p"}); err != nil {
			return err
		}
		var err error
		e, err = entities.SaveEntity(tx, Entity{Type: EntityTypeConcept, Name: "refactor", Confidence: 0.5})
		return err
	}))

	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		return entities.LinkSessionEntity(tx, "s1", e.ID, 2)
	}))
	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		return entities.LinkSessionEntity(tx, "s1", e.ID, 3)
	}))

	var freq int
	require.NoError(t, db.Reader().QueryRow(
		`SELECT frequency FROM session_entities WHERE session_id = ? AND entity_id = ?`, "s1", e.ID,
	).Scan(&freq))
	assert.Equal(t, 5, freq)
}

func TestLinkEntitiesIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	entities := NewEntityRepository(db)

	var a, b Entity
	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		var err error
		a, err = entities.SaveEntity(tx, Entity{Type: EntityTypeFile, Name: "a.go", Confidence: 0.5})
		if err != nil {
			return err
		}
		b, err = entities.SaveEntity(tx, Entity{Type: EntityTypeFile, Name: "b.go", Confidence: 0.5})
		return err
	}))

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Update(func(tx *sql.Tx) error {
			return entities.LinkEntities(tx, a.ID, b.ID, "imports", 0.8)
		}))
	}

	var count int
	require.NoError(t, db.Reader().QueryRow(`SELECT count(*) FROM entity_links`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestToolUseResolvesFromPendingToSuccessOrError(t *testing.T) {
	db := openTestDB(t)
	sessions := NewSessionRepository(db)
	toolUses := NewToolUseRepository(db)

	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		if err := sessions.Upsert(tx, Session{ID: "s1", EncodedPath: "p", DecodedPath: "/p"}); err != nil {
			return err
		}
		return toolUses.Insert(tx, ToolUse{ID: "t1", SessionID: "s1", Name: "Bash"})
	}))

	var status string
	require.NoError(t, db.Reader().QueryRow(`SELECT status FROM tool_uses WHERE id = ?`, "t1").Scan(&status))
	assert.Equal(t, ToolUseStatusPending, status)

	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		return toolUses.Resolve(tx, "t1", "done", false)
	}))
	require.NoError(t, db.Reader().QueryRow(`SELECT status FROM tool_uses WHERE id = ?`, "t1").Scan(&status))
	assert.Equal(t, ToolUseStatusSuccess, status)
}

func TestExtractionStateNeedsProcessing(t *testing.T) {
	db := openTestDB(t)
	states := NewExtractionStateRepository(db)

	needs, err := states.NeedsProcessing("/f.jsonl", 100, 200)
	require.NoError(t, err)
	assert.True(t, needs, "unseen file always needs processing")

	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		if err := states.MarkInProgress(tx, "/f.jsonl", "s1"); err != nil {
			return err
		}
		return states.MarkComplete(tx, "/f.jsonl", 100, 200, 5, "2026-01-01T00:00:00Z")
	}))

	needs, err = states.NeedsProcessing("/f.jsonl", 100, 200)
	require.NoError(t, err)
	assert.False(t, needs, "unchanged fingerprint should be skipped")

	needs, err = states.NeedsProcessing("/f.jsonl", 100, 999)
	require.NoError(t, err)
	assert.True(t, needs, "changed size should force reprocessing")
}

func TestDeleteSessionsCascades(t *testing.T) {
	db := openTestDB(t)
	sessions := NewSessionRepository(db)
	messages := NewMessageRepository(db)

	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		if err := sessions.Upsert(tx, Session{ID: "s1", EncodedPath: "p", DecodedPath: "/p"}); err != nil {
			return err
		}
		return messages.Insert(tx, Message{ID: "m1", SessionID: "s1", Role: "user", Content: "hi"})
	}))

	n, err := sessions.DeleteSessions([]string{"s1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var count int
	require.NoError(t, db.Reader().QueryRow(`SELECT count(*) FROM messages_meta`).Scan(&count))
	assert.Equal(t, 0, count, "messages should cascade-delete with their session")
}

func TestFindPruneCandidatesRequiresAFilter(t *testing.T) {
	db := openTestDB(t)
	sessions := NewSessionRepository(db)
	_, err := sessions.FindPruneCandidates(PruneFilter{})
	assert.Error(t, err)
}
