package track

import (
	"errors"
	"image"
	"math"
	"testing"

	"gocv.io/x/gocv"

	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/detector"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/pose"
)

const frameW, frameH = 640, 480

func newFrame(t *testing.T) *gocv.Mat {
	t.Helper()
	frame := gocv.NewMatWithSize(frameH, frameW, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })
	return &frame
}

func person(box image.Rectangle) detector.Detection {
	return detector.Detection{Box: box, Class: detector.ClassPerson, Confidence: 0.9}
}

func TestStep_SingleMode(t *testing.T) {
	det := detector.NewMockDetector()
	factory := pose.NewMockFactory()
	tr := New(det, factory, DefaultConfig())
	defer tr.Close()

	frame := newFrame(t)

	for i := 0; i < 3; i++ {
		outputs, err := tr.Step(frame, ModeSingle)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(outputs) != 1 || outputs[0].PersonID != 0 {
			t.Fatalf("expected one output for person 0, got %v", outputs)
		}
	}

	if det.Calls() != 0 {
		t.Errorf("single mode must not run the person detector, got %d calls", det.Calls())
	}
	if factory.NumCreated() != 1 {
		t.Errorf("single mode should use one estimator, created %d", factory.NumCreated())
	}
	if tr.NumROIs() != 0 {
		t.Errorf("single mode must not create ROIs, got %d", tr.NumROIs())
	}
}

func TestStep_SeedsOnePersonPerDetection(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetDetections([]detector.Detection{
		person(image.Rect(100, 100, 200, 200)),
		person(image.Rect(400, 100, 500, 240)),
		{Box: image.Rect(0, 0, 50, 50), Class: "dog", Confidence: 0.9},
	})
	factory := pose.NewMockFactory()
	tr := New(det, factory, DefaultConfig())
	defer tr.Close()

	outputs, err := tr.Step(newFrame(t), ModeMulti)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tr.NumROIs() != 2 {
		t.Fatalf("expected 2 ROIs (person detections only), got %d", tr.NumROIs())
	}
	if len(outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(outputs))
	}
	if outputs[0].PersonID != 0 || outputs[1].PersonID != 1 {
		t.Errorf("expected person ids 0 and 1, got %d and %d", outputs[0].PersonID, outputs[1].PersonID)
	}
	if factory.NumCreated() != 2 {
		t.Errorf("expected one estimator per ROI, created %d", factory.NumCreated())
	}
	if factory.NumOpen() != tr.NumROIs() {
		t.Errorf("every live ROI must own exactly one open estimator: %d open, %d ROIs",
			factory.NumOpen(), tr.NumROIs())
	}
}

func TestStep_SeedingIsBootstrapOnly(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetDetections([]detector.Detection{person(image.Rect(100, 100, 200, 200))})
	factory := pose.NewMockFactory()
	tr := New(det, factory, DefaultConfig())
	defer tr.Close()

	frame := newFrame(t)
	tr.Step(frame, ModeMulti)
	tr.Step(frame, ModeMulti)
	tr.Step(frame, ModeMulti)

	// One detection pass at seed time; healthy regions never re-detect.
	if det.Calls() != 1 {
		t.Errorf("expected a single detection pass, got %d", det.Calls())
	}
}

func TestStep_StableSlotAcrossHitStreak(t *testing.T) {
	// A region that keeps producing hits: lost stays 0, no reseed happens,
	// and the slot id is identical on all five frames.
	det := detector.NewMockDetector()
	det.SetDetections([]detector.Detection{person(image.Rect(100, 100, 200, 200))})
	factory := pose.NewMockFactory()
	tr := New(det, factory, DefaultConfig())
	defer tr.Close()

	frame := newFrame(t)
	for i := 0; i < 5; i++ {
		outputs, err := tr.Step(frame, ModeMulti)
		if err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
		if len(outputs) != 1 || outputs[0].PersonID != 0 {
			t.Fatalf("frame %d: expected person 0, got %v", i, outputs)
		}
		if tr.rois[0].lost != 0 {
			t.Fatalf("frame %d: expected lost count 0, got %d", i, tr.rois[0].lost)
		}
	}

	if det.Calls() != 1 {
		t.Errorf("no reseed should have run, detector called %d times", det.Calls())
	}
	if factory.NumCreated() != 1 {
		t.Errorf("no estimator churn expected, created %d", factory.NumCreated())
	}
}

func TestStep_RemapsLandmarksToFullFrame(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetDetections([]detector.Detection{person(image.Rect(100, 100, 200, 200))})
	factory := pose.NewMockFactory()
	tr := New(det, factory, DefaultConfig())
	defer tr.Close()

	outputs, err := tr.Step(newFrame(t), ModeMulti)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outputs) != 1 {
		t.Fatalf("expected one output, got %d", len(outputs))
	}

	// The seeded region is (100,100,200,200) expanded by 0.25 to
	// (75,75,225,225). The mock's nose is at region-local (0.5, 0.2),
	// which is pixel (150, 105).
	nose := outputs[0].Landmarks.Points[pose.Nose]
	wantX := 150.0 / frameW
	wantY := 105.0 / frameH
	if math.Abs(nose.X-wantX) > 1e-9 || math.Abs(nose.Y-wantY) > 1e-9 {
		t.Errorf("expected nose at (%f, %f), got (%f, %f)", wantX, wantY, nose.X, nose.Y)
	}
}

func TestStep_EstimatorErrorCountsAsMiss(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetDetections([]detector.Detection{person(image.Rect(100, 100, 200, 200))})

	broken := pose.NewMockEstimator()
	broken.SetError(errors.New("inference failed"))
	factory := pose.NewMockFactory()
	factory.QueueEstimator(broken)

	tr := New(det, factory, DefaultConfig())
	defer tr.Close()

	outputs, err := tr.Step(newFrame(t), ModeMulti)
	if err != nil {
		t.Fatalf("estimator failure must not abort the frame: %v", err)
	}
	if len(outputs) != 0 {
		t.Errorf("expected no outputs, got %v", outputs)
	}
	if tr.rois[0].lost != 1 {
		t.Errorf("expected lost count 1 after estimator error, got %d", tr.rois[0].lost)
	}
}

func TestStep_DetectorFailureMeansNoDetections(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetError(errors.New("model not loaded"))
	factory := pose.NewMockFactory()
	tr := New(det, factory, DefaultConfig())
	defer tr.Close()

	frame := newFrame(t)
	outputs, err := tr.Step(frame, ModeMulti)
	if err != nil {
		t.Fatalf("detector failure must not abort the frame: %v", err)
	}
	if len(outputs) != 0 || tr.NumROIs() != 0 {
		t.Fatalf("expected empty frame result, got %d outputs, %d ROIs", len(outputs), tr.NumROIs())
	}

	// Recovery: once the detector works again, seeding proceeds.
	det.SetError(nil)
	det.SetDetections([]detector.Detection{person(image.Rect(100, 100, 200, 200))})
	tr.Step(frame, ModeMulti)
	if tr.NumROIs() != 1 {
		t.Errorf("expected seeding after detector recovery, got %d ROIs", tr.NumROIs())
	}
}

func TestReseed_AfterLostThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LostThreshold = 3

	det := detector.NewMockDetector()
	det.SetDetections([]detector.Detection{person(image.Rect(100, 100, 200, 200))})

	// First estimator never finds a pose.
	missing := pose.NewMockEstimator()
	factory := pose.NewMockFactory()
	factory.QueueEstimator(missing)

	tr := New(det, factory, cfg)
	defer tr.Close()

	frame := newFrame(t)
	for i := 0; i < 2; i++ {
		tr.Step(frame, ModeMulti)
	}
	if got := tr.rois[0].lost; got != 2 {
		t.Fatalf("expected lost count 2 before threshold, got %d", got)
	}
	if missing.Closed() {
		t.Fatal("estimator must not be replaced before the threshold")
	}

	// Third miss reaches the threshold; a matching detection is available,
	// so the region is reseeded on this very frame.
	tr.Step(frame, ModeMulti)

	if got := tr.rois[0].lost; got != 0 {
		t.Errorf("expected lost count reset to 0 after reseed, got %d", got)
	}
	if !missing.Closed() {
		t.Error("old estimator must be released on reseed")
	}
	if factory.NumCreated() != 2 {
		t.Errorf("expected a fresh estimator on reseed, created %d", factory.NumCreated())
	}
	if det.Calls() != 2 {
		t.Errorf("expected seed + reseed detection passes, got %d", det.Calls())
	}
	if tr.rois[0].id != 0 {
		t.Errorf("reseed must keep the slot id, got %d", tr.rois[0].id)
	}
	if factory.NumOpen() != tr.NumROIs() {
		t.Errorf("ownership invariant broken: %d open estimators, %d ROIs",
			factory.NumOpen(), tr.NumROIs())
	}

	// The replacement estimator reports hits again.
	outputs, _ := tr.Step(frame, ModeMulti)
	if len(outputs) != 1 || outputs[0].PersonID != 0 {
		t.Errorf("expected person 0 tracked again after reseed, got %v", outputs)
	}
}

func TestReseed_HealthyDetectionsAreReserved(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LostThreshold = 2

	det := detector.NewMockDetector()
	det.QueueDetections([]detector.Detection{
		person(image.Rect(50, 50, 150, 250)),
		person(image.Rect(400, 50, 500, 250)),
	})
	// Every later pass only sees the tracked (healthy) person.
	det.SetDetections([]detector.Detection{person(image.Rect(30, 10, 170, 290))})

	healthyEst := pose.NewMockEstimator()
	healthyEst.SetResult(pose.CenteredLandmarks())
	staleEst := pose.NewMockEstimator()
	factory := pose.NewMockFactory()
	factory.QueueEstimator(healthyEst)
	factory.QueueEstimator(staleEst)

	tr := New(det, factory, cfg)
	defer tr.Close()

	frame := newFrame(t)
	tr.Step(frame, ModeMulti)
	tr.Step(frame, ModeMulti) // stale slot hits the threshold, reseed runs

	// The only detection overlaps the healthy region above the reservation
	// threshold; the stale slot must not steal it.
	if factory.NumCreated() != 2 {
		t.Errorf("stale slot must not be reseeded with a reserved detection, created %d", factory.NumCreated())
	}
	if staleEst.Closed() {
		t.Error("stale slot's estimator must stay in place")
	}
	if got := tr.rois[1].lost; got != 2 {
		t.Errorf("stale slot should keep accumulating misses, got lost=%d", got)
	}
}

func TestDedup_ConvergesToOneRegion(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetDetections([]detector.Detection{
		person(image.Rect(100, 100, 200, 300)),
		person(image.Rect(120, 100, 220, 300)),
	})

	hit := pose.NewMockEstimator()
	hit.SetResult(pose.CenteredLandmarks())
	miss := pose.NewMockEstimator()
	factory := pose.NewMockFactory()
	factory.QueueEstimator(hit)
	factory.QueueEstimator(miss)

	tr := New(det, factory, DefaultConfig())
	defer tr.Close()

	frame := newFrame(t)
	tr.Step(frame, ModeMulti)
	tr.Step(frame, ModeMulti)
	if tr.NumROIs() != 2 {
		t.Fatalf("regions must survive until the streak threshold, got %d", tr.NumROIs())
	}

	// Third consecutive overlapping frame: the pair is reduced to one.
	tr.Step(frame, ModeMulti)

	if tr.NumROIs() != 1 {
		t.Fatalf("expected exactly one region after dedup, got %d", tr.NumROIs())
	}
	if tr.rois[0].id != 0 {
		t.Errorf("survivor must be the region with the smaller lost count (id 0), got id %d", tr.rois[0].id)
	}
	if !miss.Closed() {
		t.Error("dropped region's estimator must be released")
	}
	if hit.Closed() {
		t.Error("survivor's estimator must stay open")
	}
}

func TestDedup_SurvivorKeepsStableID(t *testing.T) {
	// Same as above with the roles swapped: dropping the first slot must
	// not renumber the survivor.
	det := detector.NewMockDetector()
	det.SetDetections([]detector.Detection{
		person(image.Rect(100, 100, 200, 300)),
		person(image.Rect(120, 100, 220, 300)),
	})

	miss := pose.NewMockEstimator()
	hit := pose.NewMockEstimator()
	hit.SetResult(pose.CenteredLandmarks())
	factory := pose.NewMockFactory()
	factory.QueueEstimator(miss)
	factory.QueueEstimator(hit)

	tr := New(det, factory, DefaultConfig())
	defer tr.Close()

	frame := newFrame(t)
	for i := 0; i < 3; i++ {
		tr.Step(frame, ModeMulti)
	}

	if tr.NumROIs() != 1 {
		t.Fatalf("expected exactly one region after dedup, got %d", tr.NumROIs())
	}
	if tr.rois[0].id != 1 {
		t.Errorf("survivor must keep id 1 after the drop, got id %d", tr.rois[0].id)
	}

	outputs, _ := tr.Step(frame, ModeMulti)
	if len(outputs) != 1 || outputs[0].PersonID != 1 {
		t.Errorf("outputs must report the stable id 1, got %v", outputs)
	}
}

func TestSpawnUnmatched_AddsNewEntrant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LostThreshold = 1
	cfg.SpawnUnmatched = true

	det := detector.NewMockDetector()
	det.QueueDetections([]detector.Detection{person(image.Rect(100, 100, 200, 200))})
	det.SetDetections([]detector.Detection{
		person(image.Rect(100, 100, 200, 200)),
		person(image.Rect(400, 100, 500, 200)),
	})

	miss := pose.NewMockEstimator()
	factory := pose.NewMockFactory()
	factory.QueueEstimator(miss)

	tr := New(det, factory, cfg)
	defer tr.Close()

	// Seed finds one person; the immediate miss triggers a reseed pass on
	// the same frame, whose unmatched second detection spawns a new slot.
	tr.Step(newFrame(t), ModeMulti)

	if tr.NumROIs() != 2 {
		t.Fatalf("expected the unmatched detection to spawn a slot, got %d ROIs", tr.NumROIs())
	}
	if tr.rois[1].id != 1 {
		t.Errorf("new entrant must get the next stable id, got %d", tr.rois[1].id)
	}
	if factory.NumOpen() != 2 {
		t.Errorf("expected 2 open estimators, got %d", factory.NumOpen())
	}
}

func TestClose_ReleasesEverything(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetDetections([]detector.Detection{
		person(image.Rect(100, 100, 200, 200)),
		person(image.Rect(400, 100, 500, 240)),
	})
	factory := pose.NewMockFactory()
	tr := New(det, factory, DefaultConfig())

	frame := newFrame(t)
	tr.Step(frame, ModeMulti)
	tr.Step(frame, ModeSingle)

	if factory.NumOpen() != 3 {
		t.Fatalf("expected 2 region estimators + 1 single-mode estimator open, got %d", factory.NumOpen())
	}

	tr.Close()

	if factory.NumOpen() != 0 {
		t.Errorf("Close must release every estimator, %d still open", factory.NumOpen())
	}
	if tr.NumROIs() != 0 {
		t.Errorf("Close must drop all ROIs, got %d", tr.NumROIs())
	}

	// Close is idempotent.
	tr.Close()
}

func TestClose_ReleaseFailureIsIgnored(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetDetections([]detector.Detection{person(image.Rect(100, 100, 200, 200))})

	failing := pose.NewMockEstimator()
	failing.SetResult(pose.CenteredLandmarks())
	failing.SetCloseError(errors.New("subprocess already gone"))
	factory := pose.NewMockFactory()
	factory.QueueEstimator(failing)

	tr := New(det, factory, DefaultConfig())
	tr.Step(newFrame(t), ModeMulti)

	// Must not panic or propagate even if an estimator misbehaves on Close.
	tr.Close()

	if !failing.Closed() {
		t.Error("estimator must still be marked closed")
	}
}
