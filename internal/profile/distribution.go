package profile

import (
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"sheetwise/domain/profile"
)

// summarize fills the numeric distribution fields of a profile
func summarize(prof *profile.ColumnProfile, parsed []float64) {
	if len(parsed) == 0 {
		return
	}

	if min, err := stats.Min(parsed); err == nil {
		prof.Min = &min
	}
	if max, err := stats.Max(parsed); err == nil {
		prof.Max = &max
	}

	mean := stat.Mean(parsed, nil)
	prof.Mean = &mean
	if len(parsed) > 1 {
		sd := stat.StdDev(parsed, nil)
		prof.StdDev = &sd
	}
}
