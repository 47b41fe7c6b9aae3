// Package sync implements the SyncOrchestrator (spec §4.9): it drives
// one or many session files through discovery, streaming extraction,
// and persistence, with per-file transactional rollback and
// checkpointed resumption across a multi-file run.
package sync

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/memory-nexus/memory-nexus/internal/events"
	"github.com/memory-nexus/memory-nexus/internal/pathenc"
	"github.com/memory-nexus/memory-nexus/internal/ports"
	"github.com/memory-nexus/memory-nexus/internal/sessionfile"
	"github.com/memory-nexus/memory-nexus/internal/store"
	"github.com/memory-nexus/memory-nexus/internal/timestamp"
)

// Result summarizes the outcome of a sync run across one or more
// files.
type Result struct {
	Succeeded int
	Failed    int
	Warnings  []string
}

// Orchestrator drives extraction of session files into the store. It
// holds no state of its own beyond its collaborators; a checkpoint on
// disk is what allows a multi-file run to resume after a crash.
type Orchestrator struct {
	db             *store.DB
	sessions       *store.SessionRepository
	messages       *store.MessageRepository
	toolUses       *store.ToolUseRepository
	entities       *store.EntityRepository
	links          *store.LinkRepository
	extraction     *store.ExtractionStateRepository
	sessionRoot    string
	checkpointPath string
	progress       ports.ProgressSink
	logger         ports.Logger
}

// New builds an Orchestrator over an already-open database.
func New(db *store.DB, sessionRoot, checkpointPath string, progress ports.ProgressSink, logger ports.Logger) *Orchestrator {
	if progress == nil {
		progress = ports.NoopProgressSink{}
	}
	if logger == nil {
		logger = ports.NoopLogger{}
	}
	return &Orchestrator{
		db:             db,
		sessions:       store.NewSessionRepository(db),
		messages:       store.NewMessageRepository(db),
		toolUses:       store.NewToolUseRepository(db),
		entities:       store.NewEntityRepository(db),
		links:          store.NewLinkRepository(db),
		extraction:     store.NewExtractionStateRepository(db),
		sessionRoot:    sessionRoot,
		checkpointPath: checkpointPath,
		progress:       progress,
		logger:         logger,
	}
}

// RunAll discovers every session file under the session root and
// syncs each one, honoring and updating a checkpoint across the whole
// run. force reprocesses files even when their fingerprint says they
// are unchanged.
func (o *Orchestrator) RunAll(force bool) (Result, error) {
	files, err := Discover(o.sessionRoot)
	if err != nil {
		return Result{}, fmt.Errorf("discovering session files: %w", err)
	}
	return o.runFiles(files, force)
}

// RunProject syncs only the session files under one encoded project
// directory.
func (o *Orchestrator) RunProject(encodedPath string, force bool) (Result, error) {
	files, err := DiscoverProject(o.sessionRoot, encodedPath)
	if err != nil {
		return Result{}, fmt.Errorf("discovering project session files: %w", err)
	}
	return o.runFiles(files, force)
}

// RunSession syncs a single session file by id.
func (o *Orchestrator) RunSession(sessionID string, force bool) (Result, error) {
	path, err := FindSessionFile(o.sessionRoot, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("locating session %s: %w", sessionID, err)
	}
	encoded := filepath.Base(filepath.Dir(path))
	return o.runFiles([]DiscoveredFile{{Path: path, EncodedPath: encoded}}, force)
}

// RunRecovery re-enqueues every session file whose extraction state
// is pending, in_progress or error, per the startup recovery scan
// (spec §4.9).
func (o *Orchestrator) RunRecovery() (Result, error) {
	paths, err := o.extraction.FilesNeedingRecovery()
	if err != nil {
		return Result{}, fmt.Errorf("listing recovery candidates: %w", err)
	}
	files := make([]DiscoveredFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, DiscoveredFile{Path: p, EncodedPath: filepath.Base(filepath.Dir(p))})
	}
	return o.runFiles(files, true)
}

func (o *Orchestrator) runFiles(files []DiscoveredFile, force bool) (Result, error) {
	var result Result
	checkpoint, err := LoadCheckpoint(o.checkpointPath)
	if err != nil {
		o.logger.Warn("loading checkpoint failed, starting fresh", "error", err)
		checkpoint = NewCheckpoint()
	}
	if checkpoint.RunID == "" {
		checkpoint = NewCheckpoint()
	}

	o.progress.Report(ports.Progress{Phase: ports.PhaseSyncing, FilesTotal: len(files)})

	for i, f := range files {
		sessionID := sessionIDFromPath(f.Path)
		if !force && checkpoint.Done(sessionID) {
			continue
		}
		// A file whose fingerprint matches its completed extraction
		// state is skipped here, so it counts as neither succeeded nor
		// failed.
		if !force {
			if info, err := os.Stat(f.Path); err == nil {
				if needs, err := o.extraction.NeedsProcessing(f.Path, info.ModTime().Unix(), info.Size()); err == nil && !needs {
					continue
				}
			}
		}

		o.progress.Report(ports.Progress{
			Phase:       ports.PhaseSyncing,
			CurrentFile: f.Path,
			FilesTotal:  len(files),
			FilesDone:   i,
		})

		if err := o.syncFile(f, sessionID, force); err != nil {
			result.Failed++
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", f.Path, err))
			o.logger.Error("sync failed for file", "path", f.Path, "error", err)
			continue
		}
		result.Succeeded++

		checkpoint = checkpoint.MarkDone(sessionID)
		if err := SaveCheckpoint(o.checkpointPath, checkpoint); err != nil {
			o.logger.Warn("saving checkpoint failed", "error", err)
		}
	}

	if result.Failed == 0 {
		if err := DeleteCheckpoint(o.checkpointPath); err != nil {
			o.logger.Warn("deleting checkpoint failed", "error", err)
		}
	}

	o.progress.Report(ports.Progress{Phase: ports.PhaseDone, FilesTotal: len(files), FilesDone: len(files)})
	return result, nil
}

// syncFile implements the per-file algorithm of spec §4.9: a stat-
// and-fingerprint skip check, a committed in_progress marker, then a
// single transaction covering every row the file produces plus its
// completion marker, so a mid-file failure leaves no partial rows.
func (o *Orchestrator) syncFile(f DiscoveredFile, sessionID string, force bool) error {
	info, err := os.Stat(f.Path)
	if err != nil {
		_ = o.extraction.MarkError(f.Path, err.Error())
		return fmt.Errorf("stat: %w", err)
	}
	mtime := info.ModTime().Unix()
	size := info.Size()

	if !force {
		needs, err := o.extraction.NeedsProcessing(f.Path, mtime, size)
		if err != nil {
			return fmt.Errorf("checking extraction state: %w", err)
		}
		if !needs {
			return nil
		}
	}

	if err := o.db.Update(func(tx *sql.Tx) error {
		return o.extraction.MarkInProgress(tx, f.Path, sessionID)
	}); err != nil {
		return fmt.Errorf("marking in_progress: %w", err)
	}

	decoded, err := pathenc.DecodeBestEffort(f.EncodedPath)
	if err != nil {
		decoded = f.EncodedPath
	}

	err = o.db.Update(func(tx *sql.Tx) error {
		return o.ingest(tx, f.Path, sessionID, f.EncodedPath, decoded)
	})
	if err != nil {
		_ = o.extraction.MarkError(f.Path, err.Error())
		return err
	}
	return nil
}

// ingest streams every classified event in the file and applies it to
// the store, all within the caller's transaction.
func (o *Orchestrator) ingest(tx *sql.Tx, path, sessionID, encodedPath, decodedPath string) error {
	seq, err := sessionfile.Parse(path)
	if err != nil {
		return err
	}

	projectName, err := pathenc.ProjectName(decodedPath)
	if err != nil {
		projectName = decodedPath
	}

	sessionStarted := false
	skipped := 0

	for ce := range seq {
		ev := ce.Event
		switch ev.Kind {
		case events.KindUser:
			u := ev.User
			if !sessionStarted {
				if err := o.sessions.Upsert(tx, store.Session{
					ID:          sessionID,
					EncodedPath: encodedPath,
					DecodedPath: decodedPath,
					ProjectName: projectName,
					StartTime:   strPtr(timestamp.Normalize(u.Timestamp)),
				}); err != nil {
					return err
				}
				sessionStarted = true
			}
			if u.Cwd != "" || u.GitBranch != "" {
				if err := o.sessions.SetMetadata(tx, sessionID, optionalStr(u.Cwd), optionalStr(u.GitBranch)); err != nil {
					return err
				}
			}
			if err := o.messages.Insert(tx, store.Message{
				ID:        u.UUID,
				SessionID: sessionID,
				Role:      "user",
				Content:   u.Content,
				Timestamp: strPtr(timestamp.Normalize(u.Timestamp)),
			}); err != nil {
				return err
			}
			for _, tr := range events.ExtractToolResults(ce.RawLine) {
				if err := o.toolUses.Resolve(tx, tr.ToolUseID, tr.Content, tr.IsError); err != nil {
					return err
				}
			}

		case events.KindAssistant:
			a := ev.Assistant
			if !sessionStarted {
				if err := o.sessions.Upsert(tx, store.Session{
					ID:          sessionID,
					EncodedPath: encodedPath,
					DecodedPath: decodedPath,
					ProjectName: projectName,
					StartTime:   strPtr(timestamp.Normalize(a.Timestamp)),
				}); err != nil {
					return err
				}
				sessionStarted = true
			}
			var toolUseIDs []string
			var text strings.Builder
			for _, b := range a.ContentBlocks {
				if b.Type == "text" {
					if text.Len() > 0 {
						text.WriteString("\n")
					}
					text.WriteString(b.Text)
				}
			}
			for _, tu := range events.ExtractToolUses(a) {
				toolUseIDs = append(toolUseIDs, tu.ID)
				inputJSON, _ := marshalOrEmpty(tu.Input)
				if err := o.toolUses.Insert(tx, store.ToolUse{
					ID:        tu.ID,
					SessionID: sessionID,
					Name:      tu.Name,
					Input:     strPtr(inputJSON),
					Timestamp: strPtr(timestamp.Normalize(tu.Timestamp)),
				}); err != nil {
					return err
				}
				if err := o.recordFileEntity(tx, sessionID, tu); err != nil {
					return err
				}
			}
			if err := o.messages.Insert(tx, store.Message{
				ID:         a.UUID,
				SessionID:  sessionID,
				Role:       "assistant",
				Content:    text.String(),
				Timestamp:  strPtr(timestamp.Normalize(a.Timestamp)),
				ToolUseIDs: joinedOrNil(toolUseIDs),
			}); err != nil {
				return err
			}

		case events.KindSummary:
			if sessionStarted {
				if err := o.sessions.SetSummary(tx, sessionID, ev.Summary.Content); err != nil {
					return err
				}
			}

		case events.KindSystem:
			sys := ev.System
			if sys.Subtype == "session-end" && sessionStarted {
				if err := o.sessions.SetEndTime(tx, sessionID, timestamp.Normalize(sys.Timestamp)); err != nil {
					return err
				}
			}
			if cwd, ok := sys.Data["cwd"].(string); ok && sessionStarted {
				if err := o.sessions.SetMetadata(tx, sessionID, optionalStr(cwd), nil); err != nil {
					return err
				}
			}

		case events.KindSkipped:
			skipped++
			if o.logger != nil && strings.Contains(ev.Skipped.Reason, "Malformed") {
				o.logger.Debug("skipped malformed line", "path", path, "line", ce.Line, "reason", ev.Skipped.Reason)
			}
		}
	}

	var count int
	if sessionStarted {
		var err error
		count, err = o.messages.CountForSession(tx, sessionID)
		if err != nil {
			return err
		}
		if err := o.sessions.SetMessageCount(tx, sessionID, count); err != nil {
			return err
		}
	}

	if skipped > 0 && o.logger != nil {
		o.logger.Debug("file ingest finished with skipped lines", "path", path, "skipped", skipped)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return o.extraction.MarkComplete(tx, path, info.ModTime().Unix(), info.Size(), count, timestamp.Normalize(nil))
}

func sessionIDFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".jsonl")
}

func strPtr(s string) *string { return &s }

func optionalStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func joinedOrNil(ids []string) *string {
	if len(ids) == 0 {
		return nil
	}
	return strPtr(strings.Join(ids, ","))
}

func marshalOrEmpty(v map[string]any) (string, error) {
	if len(v) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "{}", nil
	}
	return string(data), nil
}
