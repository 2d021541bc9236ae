// Package track implements multi-person region-of-interest tracking for the
// pose extraction pipeline. The tracker owns one region per person, each
// bound to its own pose estimator instance, and runs a
// seed/track/reseed/deduplicate cycle once per frame. Person identities are
// stable slot ids that survive drops of other slots.
//
// All tracking is single-threaded and frame-sequential: Step must not be
// called concurrently, and no state escapes the tracker between frames.
package track

import (
	"image"
	"log"

	"gocv.io/x/gocv"

	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/detector"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/geom"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/pose"
)

// Mode selects how Step processes a frame.
type Mode int

const (
	// ModeSingle runs one global estimator over the whole frame and always
	// reports person id 0, bypassing ROI management.
	ModeSingle Mode = iota
	// ModeMulti runs the full ROI tracking cycle.
	ModeMulti
)

// Config holds the tracking thresholds.
type Config struct {
	// LostThreshold is the number of consecutive estimator misses after
	// which a region becomes eligible for reseeding.
	LostThreshold int

	// MarginRatio expands detector boxes on each side before tracking.
	MarginRatio float64

	// SmoothAlpha is the EMA weight given to the new box on reseed.
	SmoothAlpha float64

	// ReservedIoU is the overlap at which a detection is considered to
	// belong to a healthy region and may not be assigned elsewhere.
	ReservedIoU float64

	// DedupIoU is the overlap above which two regions are counted as
	// duplicates for the streak counter.
	DedupIoU float64

	// DedupStreak is the consecutive-frame streak at which a duplicate
	// pair is reduced to one region.
	DedupStreak int

	// CostLambda weights the (1 - IoU) term of the assignment cost.
	CostLambda float64

	// GateRatio, multiplied by the frame diagonal, caps the assignment
	// cost above which a matched pair is rejected.
	GateRatio float64

	// SpawnUnmatched controls whether detections left over after a reseed
	// pass spawn new slots for people who entered mid-video. The default
	// policy is to lock on to the people present at seed time.
	SpawnUnmatched bool
}

// DefaultConfig returns the tracking thresholds used by the pipeline.
func DefaultConfig() Config {
	return Config{
		LostThreshold: 10,
		MarginRatio:   0.25,
		SmoothAlpha:   0.5,
		ReservedIoU:   0.5,
		DedupIoU:      0.55,
		DedupStreak:   3,
		CostLambda:    0.5,
		GateRatio:     0.08,
	}
}

// Output is one person's landmarks for the current frame, keyed by the
// person's stable slot id. Landmark coordinates are normalized to the full
// frame.
type Output struct {
	PersonID  int
	Landmarks *pose.Landmarks
}

// roi is one tracked region. The id is assigned once at creation and never
// reused; list position carries no identity.
type roi struct {
	id            int
	bounds        image.Rectangle
	lost          int
	overlapStreak int
	est           pose.Estimator
}

// healthy reports whether the region produced landmarks on the last frame.
func (r *roi) healthy() bool {
	return r.lost == 0
}

// Tracker runs the per-frame tracking cycle. It is not safe for concurrent
// use; the frame driver calls Step sequentially.
type Tracker struct {
	cfg     Config
	det     detector.Detector
	factory pose.Factory

	rois   []*roi
	nextID int

	// single-person mode estimator, created on first use
	single pose.Estimator
}

// New creates a Tracker using det for full-frame person detection and
// factory to construct one pose estimator per tracked region.
func New(det detector.Detector, factory pose.Factory, cfg Config) *Tracker {
	return &Tracker{
		cfg:     cfg,
		det:     det,
		factory: factory,
	}
}

// NumROIs returns the number of currently tracked regions.
func (t *Tracker) NumROIs() int {
	return len(t.rois)
}

// Step processes one frame and returns the landmarks of every person the
// tracker located in it. Collaborator failures never abort the frame: a
// detector error counts as zero detections and an estimator error counts as
// a miss for that region.
func (t *Tracker) Step(frame *gocv.Mat, mode Mode) ([]Output, error) {
	if mode == ModeSingle {
		return t.stepSingle(frame)
	}

	w := frame.Cols()
	h := frame.Rows()

	t.seed(frame, w, h)
	outputs, needReseed := t.trackRegions(frame, w, h)
	if len(needReseed) > 0 {
		t.reseed(frame, w, h, needReseed)
	}
	t.dedup()

	return outputs, nil
}

// stepSingle runs one estimator across the whole frame, reporting person 0.
func (t *Tracker) stepSingle(frame *gocv.Mat) ([]Output, error) {
	if t.single == nil {
		est, err := t.factory.New()
		if err != nil {
			return nil, err
		}
		t.single = est
	}

	lm, err := t.single.Process(frame)
	if err != nil {
		log.Printf("track: single-mode estimator: %v", err)
		return nil, nil
	}
	if lm == nil {
		return nil, nil
	}
	return []Output{{PersonID: 0, Landmarks: lm}}, nil
}

// seed bootstraps the region list from a full-frame detection pass. Seeding
// only happens when no regions exist; steady-state growth goes through the
// reseed path.
func (t *Tracker) seed(frame *gocv.Mat, w, h int) {
	if len(t.rois) > 0 {
		return
	}

	dets, err := t.det.Detect(frame)
	if err != nil {
		log.Printf("track: seed detection: %v", err)
		return
	}

	for _, d := range dets {
		if d.Class != detector.ClassPerson {
			continue
		}
		t.spawn(geom.ExpandAndClip(d.Box, w, h, t.cfg.MarginRatio))
	}
}

// spawn creates a region with a fresh estimator and the next stable id.
func (t *Tracker) spawn(bounds image.Rectangle) {
	est, err := t.factory.New()
	if err != nil {
		log.Printf("track: create estimator: %v", err)
		return
	}
	t.rois = append(t.rois, &roi{
		id:     t.nextID,
		bounds: bounds,
		est:    est,
	})
	t.nextID++
}

// trackRegions runs each region's estimator over its crop. It returns the
// frame's outputs plus the list positions of regions whose miss count
// reached the reseed threshold this frame.
func (t *Tracker) trackRegions(frame *gocv.Mat, w, h int) ([]Output, []int) {
	var outputs []Output
	var needReseed []int

	for i, r := range t.rois {
		region := frame.Region(r.bounds)
		lm, err := r.est.Process(&region)
		region.Close()

		if err != nil {
			log.Printf("track: region %d estimator: %v", r.id, err)
			lm = nil
		}

		if lm == nil {
			r.lost++
			if r.lost >= t.cfg.LostThreshold {
				needReseed = append(needReseed, i)
			}
			continue
		}

		r.lost = 0
		outputs = append(outputs, Output{
			PersonID:  r.id,
			Landmarks: lm.MapToFrame(r.bounds, w, h),
		})
	}

	return outputs, needReseed
}

// releaseEstimator closes an estimator instance. Release failures must never
// abort the frame loop, so they are logged and dropped.
func releaseEstimator(e pose.Estimator) {
	if e == nil {
		return
	}
	if err := e.Close(); err != nil {
		log.Printf("track: release estimator: %v", err)
	}
}

// Close releases every estimator the tracker still owns. It is safe to call
// on any exit path, including after upstream errors, and may be called more
// than once.
func (t *Tracker) Close() {
	for _, r := range t.rois {
		releaseEstimator(r.est)
		r.est = nil
	}
	t.rois = nil

	if t.single != nil {
		releaseEstimator(t.single)
		t.single = nil
	}
}
