// Package app provides the frame driver for the MultiSOCIAL pose extraction
// pipeline: it decodes frames sequentially, feeds them through the ROI
// tracker, and routes per-person landmark outputs to CSV files, summary
// statistics, and the optional overlay renderer.
package app

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/capture"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/detector"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/pose"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/report"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/track"
)

// Config holds configuration options for the processor.
type Config struct {
	// OutputCSVDir receives one landmark CSV per tracked person.
	OutputCSVDir string

	// OutputVideoDir receives overlay videos; empty disables overlays.
	OutputVideoDir string

	// Track holds the ROI tracker thresholds.
	Track track.Config
}

// Result describes one completed extraction run.
type Result struct {
	// Frames is the number of frames processed.
	Frames int

	// CSVPaths maps person id to the written CSV file.
	CSVPaths map[int]string

	// Summaries holds per-person coverage and visibility statistics.
	Summaries []report.PersonSummary

	// OverlayPath is the rendered overlay video, when one was requested.
	OverlayPath string
}

// Processor drives pose extraction over a frame source, one frame at a
// time. The person detector and estimator factory are shared across runs;
// each run gets its own tracker.
type Processor struct {
	config   Config
	det      detector.Detector
	factory  pose.Factory
	status   func(string)
	progress func(percent int)
}

// NewProcessor creates a Processor using det for person detection and
// factory for per-region pose estimators.
func NewProcessor(config Config, det detector.Detector, factory pose.Factory) *Processor {
	return &Processor{
		config:  config,
		det:     det,
		factory: factory,
	}
}

// SetStatusCallback registers a callback for human-readable progress lines.
func (p *Processor) SetStatusCallback(fn func(string)) {
	p.status = fn
}

// SetProgressCallback registers a callback receiving completion percentages.
func (p *Processor) SetProgressCallback(fn func(percent int)) {
	p.progress = fn
}

func (p *Processor) reportStatus(format string, args ...any) {
	if p.status != nil {
		p.status(fmt.Sprintf(format, args...))
	}
}

func (p *Processor) reportProgress(frame, total int) {
	if p.progress != nil && total > 0 {
		p.progress(frame * 100 / total)
	}
}

// baseName strips the directory and extension from a video name.
func baseName(videoName string) string {
	base := filepath.Base(videoName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// modeSuffix distinguishes multi-person output files, matching the naming
// the research side expects.
func modeSuffix(mode track.Mode) string {
	if mode == track.ModeMulti {
		return "_multi"
	}
	return ""
}

// ExtractPoseFeatures runs the tracker over every frame of src and writes
// one CSV of per-frame landmark rows per person. The tracker and all of its
// estimator instances are released on every exit path.
func (p *Processor) ExtractPoseFeatures(src capture.Source, videoName string, mode track.Mode) (*Result, error) {
	tracker := track.New(p.det, p.factory, p.config.Track)
	defer tracker.Close()

	total := src.TotalFrames()

	rowsByPerson := make(map[int][][]string)
	samplesByPerson := make(map[int][]float64)
	frameIdx := 0

	for {
		frame, err := src.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read frame %d: %w", frameIdx, err)
		}

		p.reportStatus("Extracting pose from: %s (Frame %d/%d)", filepath.Base(videoName), frameIdx+1, total)

		outputs, err := tracker.Step(frame, mode)
		frame.Close()
		if err != nil {
			return nil, fmt.Errorf("track frame %d: %w", frameIdx, err)
		}

		for _, out := range outputs {
			rowsByPerson[out.PersonID] = append(rowsByPerson[out.PersonID],
				landmarkRow(frameIdx, out.PersonID, out.Landmarks))
			samplesByPerson[out.PersonID] = append(samplesByPerson[out.PersonID],
				meanVisibility(out.Landmarks))
		}

		frameIdx++
		p.reportProgress(frameIdx, total)
	}

	result := &Result{
		Frames:   frameIdx,
		CSVPaths: make(map[int]string, len(rowsByPerson)),
	}

	base := baseName(videoName) + modeSuffix(mode)
	for personID, rows := range rowsByPerson {
		path := filepath.Join(p.config.OutputCSVDir, fmt.Sprintf("%s_ID_%d.csv", base, personID))
		if err := writePersonCSV(path, rows); err != nil {
			return nil, fmt.Errorf("write csv for person %d: %w", personID, err)
		}
		result.CSVPaths[personID] = path
	}

	for personID, samples := range samplesByPerson {
		summary := report.Summarize(personID, len(rowsByPerson[personID]), frameIdx, samples)
		result.Summaries = append(result.Summaries, summary)
	}
	report.SortByPerson(result.Summaries)

	log.Printf("app: extracted %d frames, %d person(s) from %s", frameIdx, len(rowsByPerson), videoName)
	return result, nil
}

// meanVisibility averages the visibility of all landmarks in one frame.
func meanVisibility(lm *pose.Landmarks) float64 {
	sum := 0.0
	for _, pt := range lm.Points {
		sum += pt.Visibility
	}
	return sum / float64(pose.NumLandmarks)
}
