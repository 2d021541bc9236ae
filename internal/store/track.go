package store

import (
	"database/sql"
)

// Track represents the recorded statistics of one tracked person within a job.
type Track struct {
	ID               int64
	JobID            string
	PersonID         int
	Frames           int
	Coverage         float64
	MeanVisibility   float64
	StdDevVisibility float64
	CSVPath          string
}

// TrackRepository provides operations for per-person track records.
type TrackRepository struct {
	db *sql.DB
}

// Tracks returns the track repository for this store.
func (s *Store) Tracks() *TrackRepository {
	return &TrackRepository{db: s.db}
}

// Create inserts all tracks for a job in a single transaction.
func (r *TrackRepository) Create(jobID string, tracks []*Track) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	for _, t := range tracks {
		t.JobID = jobID
		result, err := tx.Exec(
			`INSERT INTO tracks (job_id, person_id, frames, coverage, mean_visibility, stddev_visibility, csv_path)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.JobID, t.PersonID, t.Frames, t.Coverage, t.MeanVisibility, t.StdDevVisibility, t.CSVPath,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
		if t.ID, err = result.LastInsertId(); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// ListByJob retrieves all tracks recorded for a job, ordered by person id.
func (r *TrackRepository) ListByJob(jobID string) ([]*Track, error) {
	rows, err := r.db.Query(
		`SELECT id, job_id, person_id, frames, coverage, mean_visibility, stddev_visibility, csv_path
		 FROM tracks WHERE job_id = ? ORDER BY person_id`,
		jobID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		t := &Track{}
		err := rows.Scan(&t.ID, &t.JobID, &t.PersonID, &t.Frames, &t.Coverage, &t.MeanVisibility, &t.StdDevVisibility, &t.CSVPath)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tracks, nil
}
