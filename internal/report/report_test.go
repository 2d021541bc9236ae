package report

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	t.Run("coverage and stats", func(t *testing.T) {
		s := Summarize(2, 50, 100, []float64{0.8, 0.9, 1.0})
		if s.PersonID != 2 {
			t.Errorf("expected person 2, got %d", s.PersonID)
		}
		if s.Coverage != 0.5 {
			t.Errorf("expected coverage 0.5, got %f", s.Coverage)
		}
		if math.Abs(s.MeanVisibility-0.9) > 1e-9 {
			t.Errorf("expected mean 0.9, got %f", s.MeanVisibility)
		}
		if math.Abs(s.StdDevVisibility-0.1) > 1e-9 {
			t.Errorf("expected stddev 0.1, got %f", s.StdDevVisibility)
		}
	})

	t.Run("no samples", func(t *testing.T) {
		s := Summarize(0, 0, 100, nil)
		if s.Coverage != 0 || s.MeanVisibility != 0 || s.StdDevVisibility != 0 {
			t.Errorf("expected zeroed stats, got %+v", s)
		}
	})

	t.Run("single sample has no stddev", func(t *testing.T) {
		s := Summarize(0, 1, 1, []float64{0.7})
		if s.MeanVisibility != 0.7 {
			t.Errorf("expected mean 0.7, got %f", s.MeanVisibility)
		}
		if s.StdDevVisibility != 0 {
			t.Errorf("expected stddev 0 for one sample, got %f", s.StdDevVisibility)
		}
	})

	t.Run("zero total frames", func(t *testing.T) {
		s := Summarize(0, 0, 0, nil)
		if s.Coverage != 0 {
			t.Errorf("expected coverage 0, got %f", s.Coverage)
		}
	})
}

func TestSortByPerson(t *testing.T) {
	summaries := []PersonSummary{
		{PersonID: 3},
		{PersonID: 0},
		{PersonID: 1},
	}
	SortByPerson(summaries)
	for i, want := range []int{0, 1, 3} {
		if summaries[i].PersonID != want {
			t.Errorf("position %d: expected person %d, got %d", i, want, summaries[i].PersonID)
		}
	}
}
