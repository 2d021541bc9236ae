package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// JobStatus represents the lifecycle state of an extraction job.
type JobStatus string

const (
	// JobStatusPending means the job is queued but not started.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning means the job is currently processing frames.
	JobStatusRunning JobStatus = "running"
	// JobStatusDone means the job finished and its outputs are recorded.
	JobStatusDone JobStatus = "done"
	// JobStatusFailed means the job stopped with an error.
	JobStatusFailed JobStatus = "failed"
)

// Job represents one pose extraction request stored in the database.
type Job struct {
	ID          string
	VideoPath   string
	Mode        string
	Status      JobStatus
	Error       string
	CSVDir      string
	OverlayPath string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// JobRepository provides CRUD operations for jobs.
type JobRepository struct {
	db *sql.DB
}

// Jobs returns the job repository for this store.
func (s *Store) Jobs() *JobRepository {
	return &JobRepository{db: s.db}
}

// Create inserts a new job into the database.
func (r *JobRepository) Create(j *Job) error {
	now := time.Now()
	j.CreatedAt = now
	j.UpdatedAt = now
	if j.Status == "" {
		j.Status = JobStatusPending
	}

	_, err := r.db.Exec(
		`INSERT INTO jobs (id, video_path, mode, status, error, csv_dir, overlay_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.VideoPath, j.Mode, string(j.Status), j.Error, j.CSVDir, j.OverlayPath, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(id string) (*Job, error) {
	j := &Job{}
	var status string

	err := r.db.QueryRow(
		`SELECT id, video_path, mode, status, error, csv_dir, overlay_path, created_at, updated_at
		 FROM jobs WHERE id = ?`,
		id,
	).Scan(&j.ID, &j.VideoPath, &j.Mode, &status, &j.Error, &j.CSVDir, &j.OverlayPath, &j.CreatedAt, &j.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	j.Status = JobStatus(status)
	return j, nil
}

// List retrieves all jobs from the database, newest first.
func (r *JobRepository) List() ([]*Job, error) {
	rows, err := r.db.Query(
		`SELECT id, video_path, mode, status, error, csv_dir, overlay_path, created_at, updated_at
		 FROM jobs ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j := &Job{}
		var status string

		err := rows.Scan(&j.ID, &j.VideoPath, &j.Mode, &status, &j.Error, &j.CSVDir, &j.OverlayPath, &j.CreatedAt, &j.UpdatedAt)
		if err != nil {
			return nil, err
		}

		j.Status = JobStatus(status)
		jobs = append(jobs, j)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}

// SetStatus updates the status and error message of a job.
func (r *JobRepository) SetStatus(id string, status JobStatus, errMsg string) error {
	result, err := r.db.Exec(
		`UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errMsg, time.Now(), id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SetOutputs records the output locations of a completed job.
func (r *JobRepository) SetOutputs(id, csvDir, overlayPath string) error {
	result, err := r.db.Exec(
		`UPDATE jobs SET csv_dir = ?, overlay_path = ?, updated_at = ? WHERE id = ?`,
		csvDir, overlayPath, time.Now(), id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a job and its tracks from the database by its ID.
func (r *JobRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
