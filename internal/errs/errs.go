// Package errs defines the error taxonomy shared across Memory-Nexus's
// core packages (see spec §7) and the exit-code mapping for the CLI
// surface (see spec §6).
package errs

import "errors"

// Sentinel errors. Callers wrap these with fmt.Errorf("...: %w", Err...)
// so errors.Is still matches after context is added, mirroring
// internal/db/sessions.go's ErrInvalidCursor in the teacher repo.
var (
	// ErrInvalidPath is returned by pathenc on empty input.
	ErrInvalidPath = errors.New("invalid path")

	// ErrMalformedLine marks a JSONL line that failed to parse as JSON.
	// Recovered locally: the line becomes a Skipped event.
	ErrMalformedLine = errors.New("malformed line")

	// ErrInvalidEvent marks a recognized event type missing a
	// required field. Recovered locally: the event becomes Skipped.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrFileUnreadable means a session source file could not be
	// opened or stat'd. Surfaced per-file.
	ErrFileUnreadable = errors.New("file unreadable")

	// ErrFtsUnavailable means the database's FTS5 module could not be
	// loaded. Fatal: the process must exit non-zero.
	ErrFtsUnavailable = errors.New("full-text search unavailable")

	// ErrDbLocked means the database engine reported a lock
	// contention error. Surfaced; never retried automatically.
	ErrDbLocked = errors.New("database locked")

	// ErrDbCorrupt means the database engine reported corruption.
	// Surfaced; never retried automatically.
	ErrDbCorrupt = errors.New("database corrupt")

	// ErrEmptyQuery means a search was issued with an empty query string.
	ErrEmptyQuery = errors.New("empty query")

	// ErrMalformedQuery means a search query could not be compiled by
	// the FTS engine (for example, unbalanced quotes).
	ErrMalformedQuery = errors.New("malformed query")

	// ErrConfigInvalid means the config file exists but could not be
	// parsed as a JSON object. Recovered: falls back to defaults.
	ErrConfigInvalid = errors.New("invalid config")

	// ErrHookInternal wraps any error encountered inside the hook
	// runner. Always logged, never surfaced as a non-zero exit.
	ErrHookInternal = errors.New("hook internal error")

	// ErrExportInvalid means an import file is missing version,
	// sessions, or stats.
	ErrExportInvalid = errors.New("invalid export file")

	// ErrFileNotFound means a requested session file or id does not
	// exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrSyncFailed is returned when a sync run completes with one or
	// more hard per-file failures and the caller asked for an error
	// rather than a warnings summary.
	ErrSyncFailed = errors.New("sync failed")

	// ErrInvalidEntity means an entity failed a type-specific
	// invariant, such as a decision entity missing {subject, decision}
	// in its metadata.
	ErrInvalidEntity = errors.New("invalid entity")
)

// Exit codes per spec §6.
const (
	ExitOK             = 0
	ExitValidation     = 1
	ExitNotFound       = 2
	ExitIO             = 3
	ExitDatabase       = 4
	ExitParse          = 5
	ExitSyncFailure    = 6
	ExitHookAlwaysZero = 0
)

// ExitCode maps an error to the process exit code defined in spec §6.
// A nil error always yields ExitOK. Unrecognized errors default to
// ExitIO, since most unclassified failures in this system originate
// from filesystem or process-spawn operations.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrFileNotFound):
		return ExitNotFound
	case errors.Is(err, ErrEmptyQuery), errors.Is(err, ErrMalformedQuery),
		errors.Is(err, ErrInvalidPath), errors.Is(err, ErrExportInvalid),
		errors.Is(err, ErrInvalidEntity):
		return ExitValidation
	case errors.Is(err, ErrDbLocked), errors.Is(err, ErrDbCorrupt),
		errors.Is(err, ErrFtsUnavailable):
		return ExitDatabase
	case errors.Is(err, ErrMalformedLine), errors.Is(err, ErrInvalidEvent):
		return ExitParse
	case errors.Is(err, ErrSyncFailed):
		return ExitSyncFailure
	case errors.Is(err, ErrFileUnreadable):
		return ExitIO
	default:
		return ExitIO
	}
}
