package store

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestJobRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Jobs()

	job := &Job{
		ID:        uuid.New().String(),
		VideoPath: "/videos/session1.mp4",
		Mode:      "multi",
	}

	err := repo.Create(job)
	if err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	// Verify defaults are set
	if job.Status != JobStatusPending {
		t.Errorf("status should default to pending, got %q", job.Status)
	}
	if job.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set after create")
	}
	if job.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set after create")
	}

	retrieved, err := repo.GetByID(job.ID)
	if err != nil {
		t.Fatalf("failed to get job by ID: %v", err)
	}

	if retrieved.ID != job.ID {
		t.Errorf("ID mismatch: got %q, want %q", retrieved.ID, job.ID)
	}
	if retrieved.VideoPath != job.VideoPath {
		t.Errorf("VideoPath mismatch: got %q, want %q", retrieved.VideoPath, job.VideoPath)
	}
	if retrieved.Mode != "multi" {
		t.Errorf("Mode mismatch: got %q, want %q", retrieved.Mode, "multi")
	}
	if retrieved.Status != JobStatusPending {
		t.Errorf("Status mismatch: got %q, want %q", retrieved.Status, JobStatusPending)
	}
}

func TestJobRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Jobs()

	_, err := repo.GetByID("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestJobRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Jobs()

	for _, path := range []string{"/videos/a.mp4", "/videos/b.mp4"} {
		job := &Job{
			ID:        uuid.New().String(),
			VideoPath: path,
			Mode:      "single",
		}
		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}
	}

	jobs, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list jobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(jobs))
	}
}

func TestJobRepository_SetStatus(t *testing.T) {
	s := newTestStore(t)
	repo := s.Jobs()

	job := &Job{ID: uuid.New().String(), VideoPath: "/videos/a.mp4", Mode: "single"}
	if err := repo.Create(job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	if err := repo.SetStatus(job.ID, JobStatusFailed, "video not readable"); err != nil {
		t.Fatalf("failed to set status: %v", err)
	}

	retrieved, err := repo.GetByID(job.ID)
	if err != nil {
		t.Fatalf("failed to get job: %v", err)
	}
	if retrieved.Status != JobStatusFailed {
		t.Errorf("expected status failed, got %q", retrieved.Status)
	}
	if retrieved.Error != "video not readable" {
		t.Errorf("expected error message, got %q", retrieved.Error)
	}
}

func TestJobRepository_SetStatus_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.Jobs().SetStatus("nonexistent", JobStatusDone, "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestJobRepository_SetOutputs(t *testing.T) {
	s := newTestStore(t)
	repo := s.Jobs()

	job := &Job{ID: uuid.New().String(), VideoPath: "/videos/a.mp4", Mode: "multi"}
	if err := repo.Create(job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	if err := repo.SetOutputs(job.ID, "/out/csv", "/out/a_multi_pose.mp4"); err != nil {
		t.Fatalf("failed to set outputs: %v", err)
	}

	retrieved, err := repo.GetByID(job.ID)
	if err != nil {
		t.Fatalf("failed to get job: %v", err)
	}
	if retrieved.CSVDir != "/out/csv" {
		t.Errorf("CSVDir mismatch: got %q", retrieved.CSVDir)
	}
	if retrieved.OverlayPath != "/out/a_multi_pose.mp4" {
		t.Errorf("OverlayPath mismatch: got %q", retrieved.OverlayPath)
	}
}

func TestJobRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Jobs()

	job := &Job{ID: uuid.New().String(), VideoPath: "/videos/a.mp4", Mode: "single"}
	if err := repo.Create(job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	if err := repo.Delete(job.ID); err != nil {
		t.Fatalf("failed to delete job: %v", err)
	}

	_, err := repo.GetByID(job.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestJobRepository_Delete_CascadesTracks(t *testing.T) {
	s := newTestStore(t)

	job := &Job{ID: uuid.New().String(), VideoPath: "/videos/a.mp4", Mode: "multi"}
	if err := s.Jobs().Create(job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	tracks := []*Track{
		{PersonID: 0, Frames: 100, Coverage: 1.0, MeanVisibility: 0.9, StdDevVisibility: 0.05, CSVPath: "/out/a_multi_ID_0.csv"},
	}
	if err := s.Tracks().Create(job.ID, tracks); err != nil {
		t.Fatalf("failed to create tracks: %v", err)
	}

	if err := s.Jobs().Delete(job.ID); err != nil {
		t.Fatalf("failed to delete job: %v", err)
	}

	remaining, err := s.Tracks().ListByJob(job.ID)
	if err != nil {
		t.Fatalf("failed to list tracks: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected tracks to cascade delete, got %d", len(remaining))
	}
}
