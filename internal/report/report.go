// Package report aggregates per-person tracking statistics for a
// processed video.
package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// PersonSummary describes how well one tracked person was covered
// across a video.
type PersonSummary struct {
	PersonID         int     `json:"person_id"`
	Frames           int     `json:"frames"`
	TotalFrames      int     `json:"total_frames"`
	Coverage         float64 `json:"coverage"`
	MeanVisibility   float64 `json:"mean_visibility"`
	StdDevVisibility float64 `json:"stddev_visibility"`
}

// Summarize builds a PersonSummary from the per-frame mean landmark
// visibilities collected for one person.
func Summarize(personID, frames, totalFrames int, visibilities []float64) PersonSummary {
	s := PersonSummary{
		PersonID:    personID,
		Frames:      frames,
		TotalFrames: totalFrames,
	}
	if totalFrames > 0 {
		s.Coverage = float64(frames) / float64(totalFrames)
	}
	if len(visibilities) > 0 {
		mean, std := stat.MeanStdDev(visibilities, nil)
		s.MeanVisibility = mean
		if !math.IsNaN(std) {
			s.StdDevVisibility = std
		}
	}
	return s
}

// SortByPerson orders summaries by ascending person id.
func SortByPerson(summaries []PersonSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].PersonID < summaries[j].PersonID
	})
}
