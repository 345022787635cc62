package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session is one recognition session as recorded in the journal.
type Session struct {
	ID        string
	StartedAt time.Time
	StoppedAt *time.Time
	Reason    string
}

// SessionRepository records session lifecycles. It satisfies the session
// controller's journal.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// SessionStarted inserts a new open session.
func (r *SessionRepository) SessionStarted(id string, at time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, started_at) VALUES (?, ?)`,
		id, at.UTC(),
	)
	return err
}

// SessionStopped closes a session with the reason it ended.
func (r *SessionRepository) SessionStopped(id string, at time.Time, reason string) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET stopped_at = ?, reason = ? WHERE id = ?`,
		at.UTC(), reason, id,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, started_at, stopped_at, reason FROM sessions WHERE id = ?`,
		id,
	)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// List returns the most recent sessions first.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, started_at, stopped_at, reason FROM sessions
		 ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	s := &Session{}
	var stopped sql.NullTime
	if err := row.Scan(&s.ID, &s.StartedAt, &stopped, &s.Reason); err != nil {
		return nil, err
	}
	if stopped.Valid {
		t := stopped.Time
		s.StoppedAt = &t
	}
	return s, nil
}
