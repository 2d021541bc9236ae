// Package server provides the HTTP server for the MultiSOCIAL pose
// extraction toolbox.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/app"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/server/api"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Runner    *app.Runner
}

// Server represents the HTTP server for the MultiSOCIAL application.
type Server struct {
	config Config
	mux    *http.ServeMux
	hub    *ProgressHub
	start  time.Time
}

// New creates a new Server with the given configuration. When a Runner is
// configured, created jobs are processed in the background and their
// progress is pushed to websocket subscribers.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		hub:    NewProgressHub(),
		start:  time.Now(),
	}
	if config.Runner != nil {
		config.Runner.SetPublisher(s.hub.Broadcast)
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register job API handlers if Store is configured
	if s.config.Store != nil {
		jobHandler := api.NewJobHandler(s.config.Store, s.startJob)
		tracksHandler := api.NewTracksHandler(s.config.Store)

		// Use a wrapper to route between jobs and tracks handlers
		jobRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Check if this is a tracks request: /api/jobs/{id}/tracks
			if strings.HasSuffix(r.URL.Path, "/tracks") {
				tracksHandler.ServeHTTP(w, r)
				return
			}
			jobHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/jobs", jobRouter)
		s.mux.Handle("/api/jobs/", jobRouter)
	}

	// Progress WebSocket endpoint
	s.mux.Handle("/api/progress", s.hub)

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// startJob runs a freshly created job in the background.
func (s *Server) startJob(jobID string) {
	if s.config.Runner == nil {
		return
	}
	go func() {
		if err := s.config.Runner.Run(jobID); err != nil {
			log.Printf("server: job %s: %v", jobID, err)
		}
	}()
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
