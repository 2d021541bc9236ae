package app

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/pose"
)

// csvColumns returns the CSV header: frame, person_id, then x/y/z/confidence
// per landmark in index order.
func csvColumns() []string {
	columns := []string{"frame", "person_id"}
	for _, name := range pose.Names {
		columns = append(columns,
			name+"_x", name+"_y", name+"_z", name+"_confidence")
	}
	return columns
}

// landmarkRow renders one person's landmarks for one frame as a CSV row.
func landmarkRow(frameIdx, personID int, lm *pose.Landmarks) []string {
	row := make([]string, 0, 2+4*pose.NumLandmarks)
	row = append(row, strconv.Itoa(frameIdx), strconv.Itoa(personID))
	for _, pt := range lm.Points {
		row = append(row,
			formatCoord(pt.X),
			formatCoord(pt.Y),
			formatCoord(pt.Z),
			formatCoord(pt.Visibility),
		)
	}
	return row
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// writePersonCSV writes the header and rows to path.
func writePersonCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvColumns()); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
