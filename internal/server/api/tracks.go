package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/store"
)

// TracksHandler handles HTTP requests for per-person track resources.
type TracksHandler struct {
	store *store.Store
}

// NewTracksHandler creates a new TracksHandler with the given store.
func NewTracksHandler(s *store.Store) *TracksHandler {
	return &TracksHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/jobs/{id}/tracks
func (h *TracksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse job ID from path: /api/jobs/{id}/tracks
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "tracks" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	jobID := parts[0]

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, jobID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type trackResponse struct {
	PersonID         int     `json:"person_id"`
	Frames           int     `json:"frames"`
	Coverage         float64 `json:"coverage"`
	MeanVisibility   float64 `json:"mean_visibility"`
	StdDevVisibility float64 `json:"stddev_visibility"`
	CSVPath          string  `json:"csv_path"`
}

type listTracksResponse struct {
	Tracks []trackResponse `json:"tracks"`
}

// list handles GET /api/jobs/{id}/tracks and returns the job's tracks.
func (h *TracksHandler) list(w http.ResponseWriter, r *http.Request, jobID string) {
	// Verify the job exists so unknown ids return 404 rather than an empty list
	if _, err := h.store.Jobs().GetByID(jobID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	tracks, err := h.store.Tracks().ListByJob(jobID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tracks")
		return
	}

	response := listTracksResponse{
		Tracks: make([]trackResponse, 0, len(tracks)),
	}
	for _, t := range tracks {
		response.Tracks = append(response.Tracks, trackResponse{
			PersonID:         t.PersonID,
			Frames:           t.Frames,
			Coverage:         t.Coverage,
			MeanVisibility:   t.MeanVisibility,
			StdDevVisibility: t.StdDevVisibility,
			CSVPath:          t.CSVPath,
		})
	}

	writeJSON(w, http.StatusOK, response)
}
