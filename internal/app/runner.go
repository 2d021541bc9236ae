package app

import (
	"fmt"
	"log"
	"sync"

	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/capture"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/store"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/track"
)

// ProgressEvent describes the state of a running job, suitable for pushing
// to websocket subscribers.
type ProgressEvent struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Percent int    `json:"percent"`
	Message string `json:"message,omitempty"`
}

// Runner executes stored extraction jobs and records their outcomes.
// Jobs run one at a time: the processor, its detector, and its progress
// callback are shared state, so concurrent Run calls are serialized.
type Runner struct {
	store     *store.Store
	processor *Processor

	// runMu holds each job's exclusive claim on the processor.
	runMu sync.Mutex

	// openSource opens the job's video; replaceable in tests.
	openSource func(path string) (capture.Source, error)

	// publish receives progress events; nil means no subscribers.
	publish func(ProgressEvent)
}

// NewRunner creates a Runner that reads jobs from st and processes them
// with p.
func NewRunner(st *store.Store, p *Processor) *Runner {
	return &Runner{
		store:     st,
		processor: p,
		openSource: func(path string) (capture.Source, error) {
			return capture.OpenVideoFile(path)
		},
	}
}

// SetPublisher registers a callback receiving job progress events.
func (r *Runner) SetPublisher(fn func(ProgressEvent)) {
	r.publish = fn
}

// SetSourceOpener overrides how job videos are opened.
func (r *Runner) SetSourceOpener(fn func(path string) (capture.Source, error)) {
	r.openSource = fn
}

func (r *Runner) emit(ev ProgressEvent) {
	if r.publish != nil {
		r.publish(ev)
	}
}

// Run executes the job with the given id: it marks the job running,
// extracts pose features from its video, writes the per-person tracks and
// output locations back to the store, and marks the job done or failed.
// Concurrent calls block until the running job finishes.
func (r *Runner) Run(jobID string) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	job, err := r.store.Jobs().GetByID(jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}

	mode := track.ModeSingle
	if job.Mode == "multi" {
		mode = track.ModeMulti
	}

	if err := r.store.Jobs().SetStatus(jobID, store.JobStatusRunning, ""); err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}
	r.emit(ProgressEvent{JobID: jobID, Status: string(store.JobStatusRunning)})

	r.processor.SetProgressCallback(func(percent int) {
		r.emit(ProgressEvent{JobID: jobID, Status: string(store.JobStatusRunning), Percent: percent})
	})

	result, err := r.runJob(job, mode)
	if err != nil {
		log.Printf("runner: job %s failed: %v", jobID, err)
		if serr := r.store.Jobs().SetStatus(jobID, store.JobStatusFailed, err.Error()); serr != nil {
			log.Printf("runner: failed to record failure for job %s: %v", jobID, serr)
		}
		r.emit(ProgressEvent{JobID: jobID, Status: string(store.JobStatusFailed), Message: err.Error()})
		return err
	}

	tracks := make([]*store.Track, 0, len(result.Summaries))
	for _, s := range result.Summaries {
		tracks = append(tracks, &store.Track{
			PersonID:         s.PersonID,
			Frames:           s.Frames,
			Coverage:         s.Coverage,
			MeanVisibility:   s.MeanVisibility,
			StdDevVisibility: s.StdDevVisibility,
			CSVPath:          result.CSVPaths[s.PersonID],
		})
	}
	if err := r.store.Tracks().Create(jobID, tracks); err != nil {
		return fmt.Errorf("record tracks: %w", err)
	}
	if err := r.store.Jobs().SetOutputs(jobID, r.processor.config.OutputCSVDir, result.OverlayPath); err != nil {
		return fmt.Errorf("record outputs: %w", err)
	}
	if err := r.store.Jobs().SetStatus(jobID, store.JobStatusDone, ""); err != nil {
		return fmt.Errorf("mark job done: %w", err)
	}
	r.emit(ProgressEvent{JobID: jobID, Status: string(store.JobStatusDone), Percent: 100})
	return nil
}

// runJob extracts features and, when an overlay directory is configured,
// re-reads the video to render the overlay.
func (r *Runner) runJob(job *store.Job, mode track.Mode) (*Result, error) {
	src, err := r.openSource(job.VideoPath)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	result, err := r.processor.ExtractPoseFeatures(src, job.VideoPath, mode)
	src.Close()
	if err != nil {
		return nil, err
	}

	if r.processor.config.OutputVideoDir != "" {
		overlaySrc, err := r.openSource(job.VideoPath)
		if err != nil {
			return nil, fmt.Errorf("reopen video for overlay: %w", err)
		}
		overlayPath, err := r.processor.EmbedPoseVideo(overlaySrc, job.VideoPath, mode)
		overlaySrc.Close()
		if err != nil {
			return nil, fmt.Errorf("render overlay: %w", err)
		}
		result.OverlayPath = overlayPath
	}

	return result, nil
}
