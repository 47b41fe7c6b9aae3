// Package store implements the embedded relational and full-text
// store (schema, connection lifecycle, and per-entity repositories).
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"

	"github.com/memory-nexus/memory-nexus/internal/errs"
)

// DB owns a single-connection writer pool and a small read-only pool
// over the same SQLite file. Writes are serialized through mu; reads
// fan out across the reader pool. Both pools are held in
// atomic.Pointer fields and read through Writer and Reader.
type DB struct {
	path string

	writer atomic.Pointer[sql.DB]
	reader atomic.Pointer[sql.DB]
	mu     sync.Mutex

	// fileLock guards the database file across OS processes: a
	// detached hook-triggered sync and a manual `sync` invocation
	// must not both believe they hold the writer.
	fileLock *flock.Flock
}

// Path returns the on-disk path of the database file.
func (db *DB) Path() string { return db.path }

func makeDSN(path string, readOnly bool) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "ON")
	params.Set("_mmap_size", "268435456")
	params.Set("_cache_size", "-64000")
	params.Set("_temp_store", "2") // memory
	if readOnly {
		params.Set("mode", "ro")
	} else {
		params.Set("_synchronous", "NORMAL")
	}
	return path + "?" + params.Encode()
}

// Open creates the database file and its directory if necessary,
// opens the writer/reader pools, runs the DDL idempotently, and
// probes for FTS5 support. Open fails fast with ErrFtsUnavailable if
// the SQLite build lacks the fts5 module: search is a core guarantee
// of this tool, not an optional extra.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db := &DB{path: path}
	if path != ":memory:" {
		db.fileLock = flock.New(path + ".lock")
	}

	if err := db.openPools(); err != nil {
		return nil, err
	}
	if err := db.init(); err != nil {
		db.Close()
		return nil, err
	}
	if path != ":memory:" {
		if err := os.Chmod(path, 0o600); err != nil && !os.IsNotExist(err) {
			db.Close()
			return nil, fmt.Errorf("restricting database permissions: %w", err)
		}
	}
	return db, nil
}

func (db *DB) openPools() error {
	writer, err := sql.Open("sqlite3", makeDSN(db.path, false))
	if err != nil {
		return fmt.Errorf("opening writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	reader, err := sql.Open("sqlite3", makeDSN(db.path, true))
	if err != nil {
		writer.Close()
		return fmt.Errorf("opening reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	db.writer.Store(writer)
	db.reader.Store(reader)
	return nil
}

func (db *DB) init() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	w := db.writer.Load()
	if _, err := w.Exec(schemaDDL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	if _, err := w.Exec(schemaDDLContinued); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}

	if err := db.probeFTS(w); err != nil {
		return err
	}
	if _, err := w.Exec(schemaFTS); err != nil {
		return fmt.Errorf("initializing full-text index: %w", err)
	}
	return nil
}

// probeFTS creates and drops a throwaway virtual table to confirm the
// fts5 module is compiled into the running sqlite3 driver, matching
// the documented probe strategy of "create and drop a temporary
// virtual table".
func (db *DB) probeFTS(w *sql.DB) error {
	_, err := w.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS _fts_probe USING fts5(x)`)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrFtsUnavailable, err)
	}
	if _, err := w.Exec(`DROP TABLE _fts_probe`); err != nil {
		return fmt.Errorf("%w: dropping probe table: %v", errs.ErrFtsUnavailable, err)
	}
	return nil
}

// Writer returns the single-connection write pool.
func (db *DB) Writer() *sql.DB { return db.writer.Load() }

// Reader returns the read-only connection pool.
func (db *DB) Reader() *sql.DB { return db.reader.Load() }

// Update runs fn inside a write transaction, serialized against any
// other writer on this process via mu, and (for file-backed
// databases) against other processes via an advisory file lock.
// Commits on nil return, rolls back otherwise.
func (db *DB) Update(fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.fileLock != nil {
		if err := db.fileLock.Lock(); err != nil {
			return fmt.Errorf("acquiring database lock: %w", err)
		}
		defer db.fileLock.Unlock()
	}

	tx, err := db.writer.Load().Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes both connection pools.
func (db *DB) Close() error {
	var errsJoin []error
	if w := db.writer.Load(); w != nil {
		errsJoin = append(errsJoin, w.Close())
	}
	if r := db.reader.Load(); r != nil {
		errsJoin = append(errsJoin, r.Close())
	}
	return errors.Join(errsJoin...)
}

// Size reports the on-disk database size in bytes, computed from
// SQLite's own page accounting rather than stat(2) so it reflects
// the logical file size even mid-WAL-checkpoint.
func (db *DB) Size() (int64, error) {
	var pageCount, pageSize int64
	r := db.reader.Load()
	if err := r.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("reading page_count: %w", err)
	}
	if err := r.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("reading page_size: %w", err)
	}
	return pageCount * pageSize, nil
}
