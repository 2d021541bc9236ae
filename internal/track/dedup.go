package track

import "github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/geom"

// dedup collapses pairs of regions that have overlapped heavily for several
// consecutive frames. Overlap increments both regions' streaks; dropping
// below the threshold resets both. When both members of a pair reach the
// streak threshold, the one with the worse miss count is removed and its
// estimator released. All comparisons in one pass run against the pre-drop
// region set, except that a region already marked for removal is excluded
// from further pairings.
func (t *Tracker) dedup() {
	n := len(t.rois)
	if n < 2 {
		return
	}

	removed := make(map[int]bool)
	for i := 0; i < n; i++ {
		if removed[i] {
			continue
		}
		for j := i + 1; j < n; j++ {
			if removed[j] {
				continue
			}

			ri := t.rois[i]
			rj := t.rois[j]
			if geom.IoU(ri.bounds, rj.bounds) > t.cfg.DedupIoU {
				ri.overlapStreak++
				rj.overlapStreak++
				if ri.overlapStreak >= t.cfg.DedupStreak && rj.overlapStreak >= t.cfg.DedupStreak {
					drop := i
					if ri.lost < rj.lost {
						drop = j
					}
					releaseEstimator(t.rois[drop].est)
					t.rois[drop].est = nil
					removed[drop] = true
					if drop == i {
						break
					}
				}
			} else {
				ri.overlapStreak = 0
				rj.overlapStreak = 0
			}
		}
	}

	if len(removed) == 0 {
		return
	}

	kept := t.rois[:0]
	for i, r := range t.rois {
		if !removed[i] {
			kept = append(kept, r)
		}
	}
	t.rois = kept
}
