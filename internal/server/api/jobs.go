// Package api provides HTTP API handlers for the MultiSOCIAL pose
// extraction toolbox.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/store"
)

// JobHandler handles HTTP requests for extraction job resources.
type JobHandler struct {
	store *store.Store

	// run starts processing a newly created job; nil leaves it pending.
	run func(jobID string)
}

// NewJobHandler creates a new JobHandler with the given store. The run
// callback, when non-nil, is invoked with the id of each created job.
func NewJobHandler(s *store.Store, run func(jobID string)) *JobHandler {
	return &JobHandler{store: s, run: run}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *JobHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse the path to determine if this is a collection or item request
	// Expected paths: /api/jobs or /api/jobs/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/jobs
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// Item endpoint: /api/jobs/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createJobRequest struct {
	VideoPath string `json:"video_path"`
	Mode      string `json:"mode"`
}

type jobResponse struct {
	ID          string `json:"id"`
	VideoPath   string `json:"video_path"`
	Mode        string `json:"mode"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	CSVDir      string `json:"csv_dir,omitempty"`
	OverlayPath string `json:"overlay_path,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type listJobsResponse struct {
	Jobs []jobResponse `json:"jobs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Job to a jobResponse.
func toResponse(j *store.Job) jobResponse {
	return jobResponse{
		ID:          j.ID,
		VideoPath:   j.VideoPath,
		Mode:        j.Mode,
		Status:      string(j.Status),
		Error:       j.Error,
		CSVDir:      j.CSVDir,
		OverlayPath: j.OverlayPath,
		CreatedAt:   j.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   j.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/jobs and returns all jobs, newest first.
func (h *JobHandler) list(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.store.Jobs().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	response := listJobsResponse{
		Jobs: make([]jobResponse, 0, len(jobs)),
	}

	for _, j := range jobs {
		response.Jobs = append(response.Jobs, toResponse(j))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/jobs/{id} and returns a single job.
func (h *JobHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	job, err := h.store.Jobs().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(job))
}

// create handles POST /api/jobs: it records the job and starts processing it.
func (h *JobHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.VideoPath == "" {
		writeError(w, http.StatusBadRequest, "Video path is required")
		return
	}

	// Default to single-person extraction
	mode := req.Mode
	if mode == "" {
		mode = "single"
	}
	if mode != "single" && mode != "multi" {
		writeError(w, http.StatusBadRequest, "Invalid mode")
		return
	}

	job := &store.Job{
		ID:        uuid.New().String(),
		VideoPath: req.VideoPath,
		Mode:      mode,
	}

	if err := h.store.Jobs().Create(job); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	if h.run != nil {
		h.run(job.ID)
	}

	writeJSON(w, http.StatusCreated, toResponse(job))
}

// delete handles DELETE /api/jobs/{id} and removes a job with its tracks.
func (h *JobHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Jobs().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete job")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
