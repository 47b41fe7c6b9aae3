package export

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memory-nexus/memory-nexus/internal/store"
)

func readJSONFields(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func writeRaw(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

// seedDB builds a database exercising every exported table: two
// sessions, messages on each, a tool use, an entity linked to a
// session and to another entity, a cross-domain link, and an
// extraction state row.
func seedDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sessions := store.NewSessionRepository(db)
	messages := store.NewMessageRepository(db)
	toolUses := store.NewToolUseRepository(db)
	entities := store.NewEntityRepository(db)
	links := store.NewLinkRepository(db)
	extraction := store.NewExtractionStateRepository(db)

	require.NoError(t, db.Update(func(tx *sql.Tx) error {
		if err := sessions.Upsert(tx, store.Session{ID: "s1", EncodedPath: "-p1", DecodedPath: "/p1", ProjectName: "p1"}); err != nil {
			return err
		}
		if err := sessions.Upsert(tx, store.Session{ID: "s2", EncodedPath: "-p2", DecodedPath: "/p2", ProjectName: "p2"}); err != nil {
			return err
		}
		if err := messages.Insert(tx, store.Message{ID: "m1", SessionID: "s1", Role: "user", Content: "hello"}); err != nil {
			return err
		}
		if err := messages.Insert(tx, store.Message{ID: "m2", SessionID: "s1", Role: "assistant", Content: "hi"}); err != nil {
			return err
		}
		if err := toolUses.Insert(tx, store.ToolUse{ID: "t1", SessionID: "s1", Name: "Bash", Status: store.ToolUseStatusSuccess}); err != nil {
			return err
		}
		file, err := entities.SaveEntity(tx, store.Entity{Type: store.EntityTypeFile, Name: "main.go", Confidence: 0.8})
		if err != nil {
			return err
		}
		decisionMetadata := `{"subject":"storage engine","decision":"use SQLite"}`
		decision, err := entities.SaveEntity(tx, store.Entity{
			Type: store.EntityTypeDecision, Name: "storage engine choice",
			Metadata: &decisionMetadata, Confidence: 0.6,
		})
		if err != nil {
			return err
		}
		if err := entities.LinkSessionEntity(tx, "s1", file.ID, 2); err != nil {
			return err
		}
		if err := entities.LinkEntities(tx, file.ID, decision.ID, "motivates", 0.9); err != nil {
			return err
		}
		if err := links.Upsert(tx, store.Link{
			SourceType: "session", SourceID: "s1",
			TargetType: "file", TargetID: "main.go",
			Relationship: "touched", Weight: 1,
		}); err != nil {
			return err
		}
		if err := extraction.MarkInProgress(tx, "/sessions/-p1/s1.jsonl", "s1"); err != nil {
			return err
		}
		return extraction.MarkComplete(tx, "/sessions/-p1/s1.jsonl", 100, 200, 2, "2026-01-01T00:00:00Z")
	}))

	return db
}

func TestExportImportRoundTripPreservesRowsByPrimaryKey(t *testing.T) {
	src := seedDB(t)
	svc := NewService(src)

	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, svc.Export(path, "2026-02-01T00:00:00Z"))

	dst, err := store.Open(filepath.Join(t.TempDir(), "restored.db"))
	require.NoError(t, err)
	defer dst.Close()

	require.NoError(t, NewService(dst).Import(path, false))

	before, err := svc.collect("2026-02-01T00:00:00Z")
	require.NoError(t, err)
	after, err := NewService(dst).collect("2026-02-01T00:00:00Z")
	require.NoError(t, err)

	// Every collect query orders by its table's primary key, so a
	// straight diff (rather than an unordered ElementsMatch) is the
	// exact comparison the round-trip property calls for.
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("snapshot mismatch after round trip (-before +after):\n%s", diff)
	}
}

func TestExportWritesVersionedEnvelope(t *testing.T) {
	db := seedDB(t)
	svc := NewService(db)

	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, svc.Export(path, "2026-02-01T00:00:00Z"))

	data, err := readJSONFields(path)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, data["version"])
	assert.NotEmpty(t, data["sessions"])
	assert.NotEmpty(t, data["stats"])
}

func TestImportClearExistingReplacesPriorContents(t *testing.T) {
	src := seedDB(t)
	svc := NewService(src)
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, svc.Export(path, "2026-02-01T00:00:00Z"))

	dst, err := store.Open(filepath.Join(t.TempDir(), "restored.db"))
	require.NoError(t, err)
	defer dst.Close()

	dstSessions := store.NewSessionRepository(dst)
	require.NoError(t, dst.Update(func(tx *sql.Tx) error {
		return dstSessions.Upsert(tx, store.Session{ID: "stale", EncodedPath: "-x", DecodedPath: "/x"})
	}))

	require.NoError(t, NewService(dst).Import(path, true))

	_, err = dstSessions.Get("stale")
	assert.Error(t, err, "stale row from before the clearing import should be gone")
}

func TestImportRejectsFileMissingRequiredFields(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer db.Close()

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, writeRaw(path, `{"version":"1.0"}`))

	err = NewService(db).Import(path, false)
	assert.Error(t, err)
}
