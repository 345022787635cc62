package store

import (
	"database/sql"
	"time"

	log "github.com/echocat/slf4g"
	"github.com/google/uuid"

	"github.com/ayusman/signvoice/internal/announce"
)

// Announcement is a persisted emission.
type Announcement struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId,omitempty"`
	Gloss     string    `json:"gloss"`
	Text      string    `json:"text"`
	Mode      string    `json:"mode"`
	Spoken    bool      `json:"spoken"`
	CreatedAt time.Time `json:"createdAt"`
}

// AnnouncementRepository provides access to the announcement history.
type AnnouncementRepository struct {
	db *sql.DB
}

// Announcements returns the announcement repository for this store.
func (s *Store) Announcements() *AnnouncementRepository {
	return &AnnouncementRepository{db: s.db}
}

// Create inserts an announcement, assigning an ID when it has none.
func (r *AnnouncementRepository) Create(a *Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	var sessionID sql.NullString
	if a.SessionID != "" {
		sessionID = sql.NullString{String: a.SessionID, Valid: true}
	}

	_, err := r.db.Exec(
		`INSERT INTO announcements (id, session_id, gloss, text, mode, spoken, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, sessionID, a.Gloss, a.Text, a.Mode, a.Spoken, a.CreatedAt.UTC(),
	)
	return err
}

// Recent returns up to limit announcements, newest first.
func (r *AnnouncementRepository) Recent(limit int) ([]*Announcement, error) {
	return r.query(
		`SELECT id, session_id, gloss, text, mode, spoken, created_at FROM announcements
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
}

// BySession returns a session's announcements in emission order.
func (r *AnnouncementRepository) BySession(sessionID string) ([]*Announcement, error) {
	return r.query(
		`SELECT id, session_id, gloss, text, mode, spoken, created_at FROM announcements
		 WHERE session_id = ? ORDER BY created_at, rowid`,
		sessionID,
	)
}

// CountByGloss tallies announcements per gloss.
func (r *AnnouncementRepository) CountByGloss() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT gloss, COUNT(*) FROM announcements GROUP BY gloss`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var gloss string
		var n int
		if err := rows.Scan(&gloss, &n); err != nil {
			return nil, err
		}
		counts[gloss] = n
	}
	return counts, rows.Err()
}

func (r *AnnouncementRepository) query(q string, args ...any) ([]*Announcement, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Announcement
	for rows.Next() {
		a := &Announcement{}
		var sessionID sql.NullString
		if err := rows.Scan(&a.ID, &sessionID, &a.Gloss, &a.Text, &a.Mode, &a.Spoken, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.SessionID = sessionID.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// Recorder journals every announcement under the session that produced it.
type Recorder struct {
	repo    *AnnouncementRepository
	session func() string
}

// NewRecorder returns a Recorder. session reports the current session ID
// and may be nil.
func NewRecorder(repo *AnnouncementRepository, session func() string) *Recorder {
	return &Recorder{repo: repo, session: session}
}

// Announced implements announce.Listener. Write failures are logged and
// never reach the announcer.
func (r *Recorder) Announced(a announce.Announcement) {
	rec := &Announcement{
		Gloss:     string(a.Gloss),
		Text:      a.Text,
		Mode:      a.Mode.String(),
		Spoken:    a.Spoken,
		CreatedAt: a.At,
	}
	if r.session != nil {
		rec.SessionID = r.session()
	}

	if err := r.repo.Create(rec); err != nil {
		log.WithError(err).
			With("gloss", rec.Gloss).
			Warn("Failed to record announcement")
	}
}
