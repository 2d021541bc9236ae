package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Jobs table - one row per extraction request
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			video_path TEXT NOT NULL,
			mode TEXT NOT NULL CHECK(mode IN ('single', 'multi')),
			status TEXT NOT NULL CHECK(status IN ('pending', 'running', 'done', 'failed')),
			error TEXT NOT NULL DEFAULT '',
			csv_dir TEXT NOT NULL DEFAULT '',
			overlay_path TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Tracks table - per-person coverage statistics for a finished job
		`CREATE TABLE IF NOT EXISTS tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
			person_id INTEGER NOT NULL,
			frames INTEGER NOT NULL,
			coverage REAL NOT NULL,
			mean_visibility REAL NOT NULL,
			stddev_visibility REAL NOT NULL,
			csv_path TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_tracks_job_id ON tracks(job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
