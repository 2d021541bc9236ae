package track

import (
	"image"
	"log"
	"math"

	hungarian "github.com/arthurkushman/go-hungarian"
	"gocv.io/x/gocv"

	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/detector"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/geom"
)

// padCost fills the dummy rows/columns used to square the assignment matrix.
// It is far above any reachable real cost, so dummy pairings never displace
// real ones and are rejected by the gate.
const padCost = 1e6

// reseed re-localizes the regions at the given list positions using a single
// shared detection pass and a minimum-cost one-to-one assignment between
// stale regions and unclaimed detections.
func (t *Tracker) reseed(frame *gocv.Mat, w, h int, stale []int) {
	dets, err := t.det.Detect(frame)
	if err != nil {
		log.Printf("track: reseed detection: %v", err)
		return
	}

	var boxes []image.Rectangle
	for _, d := range dets {
		if d.Class == detector.ClassPerson {
			boxes = append(boxes, d.Box)
		}
	}

	// Detections overlapping a healthy region belong to that region and may
	// not be stolen by a lost one.
	var healthy []image.Rectangle
	for _, r := range t.rois {
		if r.healthy() {
			healthy = append(healthy, r.bounds)
		}
	}
	boxes = filterReserved(boxes, healthy, t.cfg.ReservedIoU)
	if len(boxes) == 0 {
		return
	}

	diag := geom.Diagonal(w, h)
	cost := make([][]float64, len(stale))
	for i, idx := range stale {
		r := t.rois[idx]
		rcx, rcy := geom.Center(r.bounds)
		cost[i] = make([]float64, len(boxes))
		for j, box := range boxes {
			dcx, dcy := geom.Center(box)
			dx := dcx - rcx
			dy := dcy - rcy
			distNorm := math.Sqrt(dx*dx+dy*dy) / math.Max(1e-6, diag)
			cost[i][j] = distNorm + t.cfg.CostLambda*(1.0-geom.IoU(r.bounds, box))
		}
	}

	matched := make(map[int]bool, len(boxes))
	gate := t.cfg.GateRatio * diag
	for _, p := range solveAssignment(cost) {
		if p.cost > gate {
			continue
		}
		matched[p.col] = true

		box := geom.ExpandAndClip(boxes[p.col], w, h, t.cfg.MarginRatio)

		// Second guard: the expanded box may now collide with a healthy
		// region even though the raw detection did not.
		if conflicts(box, healthy, t.cfg.ReservedIoU) {
			continue
		}

		est, err := t.factory.New()
		if err != nil {
			log.Printf("track: reseed estimator: %v", err)
			continue
		}

		r := t.rois[stale[p.row]]
		releaseEstimator(r.est)
		r.bounds = geom.Smooth(r.bounds, box, t.cfg.SmoothAlpha)
		r.est = est
		r.lost = 0
	}

	if t.cfg.SpawnUnmatched {
		t.spawnLeftovers(boxes, matched, w, h)
	}
}

// spawnLeftovers creates new slots for reseed detections that matched no
// existing region, letting people who entered mid-video be tracked.
func (t *Tracker) spawnLeftovers(boxes []image.Rectangle, matched map[int]bool, w, h int) {
	for j, box := range boxes {
		if matched[j] {
			continue
		}
		expanded := geom.ExpandAndClip(box, w, h, t.cfg.MarginRatio)

		taken := false
		for _, r := range t.rois {
			if geom.IoU(expanded, r.bounds) >= t.cfg.ReservedIoU {
				taken = true
				break
			}
		}
		if !taken {
			t.spawn(expanded)
		}
	}
}

// filterReserved drops boxes overlapping any reserved box at or above iou.
func filterReserved(boxes, reserved []image.Rectangle, iou float64) []image.Rectangle {
	kept := boxes[:0]
	for _, b := range boxes {
		if !conflicts(b, reserved, iou) {
			kept = append(kept, b)
		}
	}
	return kept
}

func conflicts(box image.Rectangle, reserved []image.Rectangle, iou float64) bool {
	for _, r := range reserved {
		if geom.IoU(box, r) >= iou {
			return true
		}
	}
	return false
}

// pair is one accepted row/column match of the assignment problem.
type pair struct {
	row  int
	col  int
	cost float64
}

// solveAssignment finds the minimum-total-cost one-to-one matching of a
// rectangular cost matrix. The matrix is padded to square with padCost so
// the Hungarian solver applies; pairings that land on a dummy row or column
// are discarded.
func solveAssignment(cost [][]float64) []pair {
	rows := len(cost)
	if rows == 0 {
		return nil
	}
	cols := len(cost[0])
	if cols == 0 {
		return nil
	}

	n := max(rows, cols)
	padded := make([][]float64, n)
	for i := range padded {
		padded[i] = make([]float64, n)
		for j := range padded[i] {
			if i < rows && j < cols {
				padded[i][j] = cost[i][j]
			} else {
				padded[i][j] = padCost
			}
		}
	}

	solved := hungarian.SolveMin(padded)

	var pairs []pair
	for r := 0; r < rows; r++ {
		for c := range solved[r] {
			if c < cols {
				pairs = append(pairs, pair{row: r, col: c, cost: cost[r][c]})
			}
			break
		}
	}
	return pairs
}
