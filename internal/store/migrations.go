package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per recognition session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			stopped_at DATETIME,
			reason TEXT NOT NULL DEFAULT ''
		)`,

		// Announcements table - every emitted gloss
		`CREATE TABLE IF NOT EXISTS announcements (
			id TEXT PRIMARY KEY,
			session_id TEXT REFERENCES sessions(id) ON DELETE SET NULL,
			gloss TEXT NOT NULL CHECK(gloss IN ('HELLO', 'GOODBYE', 'OK')),
			text TEXT NOT NULL,
			mode TEXT NOT NULL CHECK(mode IN ('voice', 'text')),
			spoken INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_announcements_session_id ON announcements(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_announcements_created_at ON announcements(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
