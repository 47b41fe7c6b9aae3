package export

import (
	"database/sql"
	"fmt"

	"github.com/memory-nexus/memory-nexus/internal/store"
)

func collectSessions(r *sql.DB) ([]store.Session, error) {
	rows, err := r.Query(`SELECT id, encoded_path, decoded_path, project_name, start_time, end_time,
		message_count, summary, cwd, git_branch FROM sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("collecting sessions: %w", err)
	}
	defer rows.Close()

	var out []store.Session
	for rows.Next() {
		var s store.Session
		if err := rows.Scan(&s.ID, &s.EncodedPath, &s.DecodedPath, &s.ProjectName, &s.StartTime, &s.EndTime,
			&s.MessageCount, &s.Summary, &s.Cwd, &s.GitBranch); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func collectMessages(r *sql.DB) ([]store.Message, error) {
	rows, err := r.Query(`SELECT id, session_id, role, content, timestamp, tool_use_ids
		FROM messages_meta ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("collecting messages: %w", err)
	}
	defer rows.Close()

	var out []store.Message
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Timestamp, &m.ToolUseIDs); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func collectToolUses(r *sql.DB) ([]store.ToolUse, error) {
	rows, err := r.Query(`SELECT id, session_id, name, input, result, status, timestamp
		FROM tool_uses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("collecting tool uses: %w", err)
	}
	defer rows.Close()

	var out []store.ToolUse
	for rows.Next() {
		var t store.ToolUse
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Name, &t.Input, &t.Result, &t.Status, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning tool use: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func collectEntities(r *sql.DB) ([]store.Entity, error) {
	rows, err := r.Query(`SELECT id, type, name, metadata, confidence FROM entities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("collecting entities: %w", err)
	}
	defer rows.Close()

	var out []store.Entity
	for rows.Next() {
		var e store.Entity
		if err := rows.Scan(&e.ID, &e.Type, &e.Name, &e.Metadata, &e.Confidence); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func collectLinks(r *sql.DB) ([]store.Link, error) {
	rows, err := r.Query(`SELECT source_type, source_id, target_type, target_id, relationship, weight
		FROM links ORDER BY source_type, source_id, target_type, target_id, relationship`)
	if err != nil {
		return nil, fmt.Errorf("collecting links: %w", err)
	}
	defer rows.Close()

	var out []store.Link
	for rows.Next() {
		var l store.Link
		if err := rows.Scan(&l.SourceType, &l.SourceID, &l.TargetType, &l.TargetID, &l.Relationship, &l.Weight); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func collectSessionEntities(r *sql.DB) ([]SessionEntity, error) {
	rows, err := r.Query(`SELECT session_id, entity_id, frequency
		FROM session_entities ORDER BY session_id, entity_id`)
	if err != nil {
		return nil, fmt.Errorf("collecting session entities: %w", err)
	}
	defer rows.Close()

	var out []SessionEntity
	for rows.Next() {
		var se SessionEntity
		if err := rows.Scan(&se.SessionID, &se.EntityID, &se.Frequency); err != nil {
			return nil, fmt.Errorf("scanning session entity: %w", err)
		}
		out = append(out, se)
	}
	return out, rows.Err()
}

func collectEntityLinks(r *sql.DB) ([]store.EntityLink, error) {
	rows, err := r.Query(`SELECT source_entity_id, target_entity_id, relationship, weight
		FROM entity_links ORDER BY source_entity_id, target_entity_id, relationship`)
	if err != nil {
		return nil, fmt.Errorf("collecting entity links: %w", err)
	}
	defer rows.Close()

	var out []store.EntityLink
	for rows.Next() {
		var el store.EntityLink
		if err := rows.Scan(&el.SourceEntityID, &el.TargetEntityID, &el.Relationship, &el.Weight); err != nil {
			return nil, fmt.Errorf("scanning entity link: %w", err)
		}
		out = append(out, el)
	}
	return out, rows.Err()
}

func collectExtractionStates(r *sql.DB) ([]store.ExtractionState, error) {
	rows, err := r.Query(`SELECT session_file, session_id, status, mtime, size,
		messages_extracted, error_message, completed_at
		FROM extraction_state ORDER BY session_file`)
	if err != nil {
		return nil, fmt.Errorf("collecting extraction states: %w", err)
	}
	defer rows.Close()

	var out []store.ExtractionState
	for rows.Next() {
		var e store.ExtractionState
		if err := rows.Scan(&e.SessionFile, &e.SessionID, &e.Status, &e.Mtime, &e.Size,
			&e.MessagesExtracted, &e.ErrorMessage, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning extraction state: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func restoreSessions(tx *sql.Tx, rows []store.Session) error {
	for _, s := range rows {
		_, err := tx.Exec(`INSERT INTO sessions
			(id, encoded_path, decoded_path, project_name, start_time, end_time, message_count, summary, cwd, git_branch)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				encoded_path = excluded.encoded_path,
				decoded_path = excluded.decoded_path,
				project_name = excluded.project_name,
				start_time = excluded.start_time,
				end_time = excluded.end_time,
				message_count = excluded.message_count,
				summary = excluded.summary,
				cwd = excluded.cwd,
				git_branch = excluded.git_branch`,
			s.ID, s.EncodedPath, s.DecodedPath, s.ProjectName, s.StartTime, s.EndTime, s.MessageCount, s.Summary, s.Cwd, s.GitBranch)
		if err != nil {
			return fmt.Errorf("restoring session %s: %w", s.ID, err)
		}
	}
	return nil
}

func restoreMessages(tx *sql.Tx, rows []store.Message) error {
	for _, m := range rows {
		_, err := tx.Exec(`INSERT INTO messages_meta (id, session_id, role, content, timestamp, tool_use_ids)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				session_id = excluded.session_id,
				role = excluded.role,
				content = excluded.content,
				timestamp = excluded.timestamp,
				tool_use_ids = excluded.tool_use_ids`,
			m.ID, m.SessionID, m.Role, m.Content, m.Timestamp, m.ToolUseIDs)
		if err != nil {
			return fmt.Errorf("restoring message %s: %w", m.ID, err)
		}
	}
	return nil
}

func restoreToolUses(tx *sql.Tx, rows []store.ToolUse) error {
	for _, t := range rows {
		_, err := tx.Exec(`INSERT INTO tool_uses (id, session_id, name, input, result, status, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				session_id = excluded.session_id,
				name = excluded.name,
				input = excluded.input,
				result = excluded.result,
				status = excluded.status,
				timestamp = excluded.timestamp`,
			t.ID, t.SessionID, t.Name, t.Input, t.Result, t.Status, t.Timestamp)
		if err != nil {
			return fmt.Errorf("restoring tool use %s: %w", t.ID, err)
		}
	}
	return nil
}

func restoreEntities(tx *sql.Tx, rows []store.Entity) error {
	for _, e := range rows {
		_, err := tx.Exec(`INSERT INTO entities (id, type, name, metadata, confidence)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				type = excluded.type,
				name = excluded.name,
				metadata = excluded.metadata,
				confidence = excluded.confidence`,
			e.ID, e.Type, e.Name, e.Metadata, e.Confidence)
		if err != nil {
			return fmt.Errorf("restoring entity %d: %w", e.ID, err)
		}
	}
	return nil
}

func restoreLinks(tx *sql.Tx, rows []store.Link) error {
	for _, l := range rows {
		_, err := tx.Exec(`INSERT INTO links (source_type, source_id, target_type, target_id, relationship, weight)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(source_type, source_id, target_type, target_id, relationship) DO UPDATE SET
				weight = excluded.weight`,
			l.SourceType, l.SourceID, l.TargetType, l.TargetID, l.Relationship, l.Weight)
		if err != nil {
			return fmt.Errorf("restoring link %s->%s: %w", l.SourceID, l.TargetID, err)
		}
	}
	return nil
}

func restoreSessionEntities(tx *sql.Tx, rows []SessionEntity) error {
	for _, se := range rows {
		_, err := tx.Exec(`INSERT INTO session_entities (session_id, entity_id, frequency)
			VALUES (?, ?, ?)
			ON CONFLICT(session_id, entity_id) DO UPDATE SET frequency = excluded.frequency`,
			se.SessionID, se.EntityID, se.Frequency)
		if err != nil {
			return fmt.Errorf("restoring session entity %s/%d: %w", se.SessionID, se.EntityID, err)
		}
	}
	return nil
}

func restoreEntityLinks(tx *sql.Tx, rows []store.EntityLink) error {
	for _, el := range rows {
		_, err := tx.Exec(`INSERT INTO entity_links (source_entity_id, target_entity_id, relationship, weight)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(source_entity_id, target_entity_id, relationship) DO UPDATE SET
				weight = excluded.weight`,
			el.SourceEntityID, el.TargetEntityID, el.Relationship, el.Weight)
		if err != nil {
			return fmt.Errorf("restoring entity link %d->%d: %w", el.SourceEntityID, el.TargetEntityID, err)
		}
	}
	return nil
}

func restoreExtractionStates(tx *sql.Tx, rows []store.ExtractionState) error {
	for _, e := range rows {
		_, err := tx.Exec(`INSERT INTO extraction_state
			(session_file, session_id, status, mtime, size, messages_extracted, error_message, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(session_file) DO UPDATE SET
				session_id = excluded.session_id,
				status = excluded.status,
				mtime = excluded.mtime,
				size = excluded.size,
				messages_extracted = excluded.messages_extracted,
				error_message = excluded.error_message,
				completed_at = excluded.completed_at`,
			e.SessionFile, e.SessionID, e.Status, e.Mtime, e.Size, e.MessagesExtracted, e.ErrorMessage, e.CompletedAt)
		if err != nil {
			return fmt.Errorf("restoring extraction state %s: %w", e.SessionFile, err)
		}
	}
	return nil
}
