package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Capture session history

// SessionStatusCapturing marks a session row that has not finished yet
const SessionStatusCapturing = "capturing"

// StartSession creates the history row for a new session
func (db *DB) StartSession(id, region string, startedAt time.Time) error {
	return db.ExecTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO capture_sessions (id, region, state, started_at)
			VALUES (?, ?, ?, ?)
		`, id, region, SessionStatusCapturing, startedAt)
		if err != nil {
			return fmt.Errorf("failed to insert capture session: %w", err)
		}
		return nil
	})
}

// FinishSession stores the outcome of a session started with StartSession
func (db *DB) FinishSession(s *CaptureSession) error {
	if s.FinishedAt == nil {
		now := time.Now()
		s.FinishedAt = &now
	}
	duration := s.FinishedAt.Sub(s.StartedAt).Milliseconds()
	s.DurationMs = &duration

	return db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE capture_sessions
			SET state = ?,
				frames = ?,
				width = ?,
				height = ?,
				best_match_count = ?,
				best_ignore_bottom = ?,
				degraded = ?,
				output_path = ?,
				error_message = ?,
				finished_at = ?,
				duration_ms = ?
			WHERE id = ?
		`, s.State, s.Frames, s.Width, s.Height, s.BestMatchCount, s.BestIgnoreBottom,
			s.Degraded, s.OutputPath, s.ErrorMessage, s.FinishedAt, s.DurationMs, s.ID)
		if err != nil {
			return fmt.Errorf("failed to update capture session: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("capture session %s not found", s.ID)
		}
		return nil
	})
}

const sessionColumns = `
	id, region, state, frames, width, height, best_match_count,
	best_ignore_bottom, degraded, output_path, error_message,
	started_at, finished_at, duration_ms`

func scanSession(row interface{ Scan(...interface{}) error }) (*CaptureSession, error) {
	s := &CaptureSession{}
	err := row.Scan(
		&s.ID, &s.Region, &s.State, &s.Frames, &s.Width, &s.Height, &s.BestMatchCount,
		&s.BestIgnoreBottom, &s.Degraded, &s.OutputPath, &s.ErrorMessage,
		&s.StartedAt, &s.FinishedAt, &s.DurationMs,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetSession retrieves a capture session by ID
func (db *DB) GetSession(id string) (*CaptureSession, error) {
	row := db.conn.QueryRow(`SELECT `+sessionColumns+` FROM capture_sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("capture session %s not found", id)
	}
	return s, err
}

// GetRecentSessions returns the most recent sessions, newest first
func (db *DB) GetRecentSessions(limit int) ([]*CaptureSession, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.Query(`
		SELECT `+sessionColumns+`
		FROM capture_sessions
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []*CaptureSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// GetSessionStats returns the number of sessions per final state
func (db *DB) GetSessionStats(startDate, endDate time.Time) (map[string]int, error) {
	rows, err := db.conn.Query(`
		SELECT state, COUNT(*)
		FROM capture_sessions
		WHERE started_at BETWEEN ? AND ?
		GROUP BY state
	`, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		stats[state] = count
	}

	return stats, rows.Err()
}

// DeleteOldSessions removes sessions started before olderThan
func (db *DB) DeleteOldSessions(olderThan time.Time) (int64, error) {
	var deleted int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		// Explicit delete so MySQL tables without FK support stay clean too
		if _, err := tx.Exec(`
			DELETE FROM session_errors
			WHERE session_id IN (SELECT id FROM capture_sessions WHERE started_at < ?)
		`, olderThan); err != nil {
			return err
		}

		result, err := tx.Exec(`DELETE FROM capture_sessions WHERE started_at < ?`, olderThan)
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	return deleted, err
}

// LogSessionError records an error raised while a session ran
func (db *DB) LogSessionError(sessionID, category, message string, frame int) (int64, error) {
	var errorID int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO session_errors (session_id, category, error_message, frame, occurred_at)
			VALUES (?, ?, ?, ?, ?)
		`, sessionID, category, message, frame, time.Now())
		if err != nil {
			return fmt.Errorf("failed to insert session error: %w", err)
		}

		errorID, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	return errorID, nil
}

// GetSessionErrors returns the errors of one session in order
func (db *DB) GetSessionErrors(sessionID string) ([]*SessionError, error) {
	rows, err := db.conn.Query(`
		SELECT id, session_id, category, error_message, frame, occurred_at
		FROM session_errors
		WHERE session_id = ?
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	errs := []*SessionError{}
	for rows.Next() {
		e := &SessionError{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Category, &e.ErrorMessage, &e.Frame, &e.OccurredAt); err != nil {
			return nil, err
		}
		errs = append(errs, e)
	}

	return errs, rows.Err()
}
