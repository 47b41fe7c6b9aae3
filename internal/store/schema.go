package store

// schemaDDL and schemaDDLContinued together create every ordinary
// table needed by the core, idempotently (the FTS index is in
// schemaFTS). Both are executed in full on every Open: CREATE TABLE/INDEX IF NOT EXISTS
// makes re-running it against an already-initialized database a no-op.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS sessions (
    id              TEXT PRIMARY KEY,
    encoded_path    TEXT NOT NULL,
    decoded_path    TEXT NOT NULL,
    project_name    TEXT NOT NULL,
    start_time      TEXT,
    end_time        TEXT,
    message_count   INTEGER NOT NULL DEFAULT 0,
    summary         TEXT,
    cwd             TEXT,
    git_branch      TEXT
);

CREATE INDEX IF NOT EXISTS idx_sessions_project_name ON sessions(project_name);

CREATE INDEX IF NOT EXISTS idx_sessions_encoded_path ON sessions(encoded_path);

CREATE TABLE IF NOT EXISTS messages_meta (
    rowid           INTEGER PRIMARY KEY AUTOINCREMENT,
    id              TEXT NOT NULL UNIQUE,
    session_id      TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    role            TEXT NOT NULL,
    content         TEXT NOT NULL,
    timestamp       TEXT,
    tool_use_ids    TEXT
);

CREATE INDEX IF NOT EXISTS idx_messages_meta_session ON messages_meta(session_id);

CREATE TABLE IF NOT EXISTS tool_uses (
    id              TEXT PRIMARY KEY,
    session_id      TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    name            TEXT NOT NULL,
    input           TEXT,
    result          TEXT,
    status          TEXT NOT NULL DEFAULT 'pending'
                        CHECK (status IN ('pending', 'success', 'error')),
    timestamp       TEXT
);

CREATE INDEX IF NOT EXISTS idx_tool_uses_session ON tool_uses(session_id);

CREATE TABLE IF NOT EXISTS links (
    source_type     TEXT NOT NULL,
    source_id       TEXT NOT NULL,
    target_type     TEXT NOT NULL,
    target_id       TEXT NOT NULL,
    relationship    TEXT NOT NULL,
    weight          REAL NOT NULL DEFAULT 1.0
                        CHECK (weight BETWEEN 0 AND 1),
    PRIMARY KEY (source_type, source_id, target_type, target_id, relationship)
);

CREATE TABLE IF NOT EXISTS entities (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    type            TEXT NOT NULL
                        CHECK (type IN ('concept', 'file', 'decision', 'term')),
    name            TEXT NOT NULL,
    name_lower      TEXT GENERATED ALWAYS AS (lower(name)) VIRTUAL,
    metadata        TEXT,
    confidence      REAL NOT NULL DEFAULT 0.5
                        CHECK (confidence BETWEEN 0 AND 1)
);

-- SQLite has no functional-index shorthand, so case-insensitive
-- uniqueness on (type, name) is enforced via the name_lower
-- generated column above plus this unique index.
CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_type_name_lower ON entities(type, name_lower);
`

const schemaDDLContinued = `
CREATE TABLE IF NOT EXISTS session_entities (
    session_id      TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    entity_id       INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    frequency       INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (session_id, entity_id)
);

CREATE TABLE IF NOT EXISTS entity_links (
    source_entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    target_entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    relationship     TEXT NOT NULL,
    weight           REAL NOT NULL DEFAULT 1.0
                        CHECK (weight BETWEEN 0 AND 1),
    PRIMARY KEY (source_entity_id, target_entity_id, relationship)
);

CREATE TABLE IF NOT EXISTS extraction_state (
    session_file    TEXT PRIMARY KEY,
    session_id      TEXT,
    status          TEXT NOT NULL DEFAULT 'pending'
                        CHECK (status IN ('pending', 'in_progress', 'complete', 'error')),
    mtime           INTEGER,
    size            INTEGER,
    messages_extracted INTEGER NOT NULL DEFAULT 0,
    error_message   TEXT,
    completed_at    TEXT
);
`

// schemaFTS creates the external-content FTS5 index over
// messages_meta.content and the triggers that keep it in sync. The
// FTS table never stores its own copy of content; it stores rowids
// and relies on messages_meta for the text, which is why deletes (and
// the delete half of an update) must use the FTS5 'delete' command
// form instead of ordinary DML; inserts are a plain INSERT of rowid
// and content.
const schemaFTS = `
CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    content,
    content='messages_meta',
    content_rowid='rowid',
    tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS messages_meta_ai AFTER INSERT ON messages_meta BEGIN
    INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_meta_ad AFTER DELETE ON messages_meta BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content)
        VALUES ('delete', old.rowid, old.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_meta_au AFTER UPDATE ON messages_meta BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content)
        VALUES ('delete', old.rowid, old.content);
    INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
END;
`
