package domain

import (
	"math"

	"github.com/montanaflynn/stats"
)

// zeroStdTolerance treats a deviation this small relative to the mean as zero,
// so constant baselines yield an undefined anomaly instead of a huge z.
const zeroStdTolerance = 1e-12

// EstimateBaseline computes, per (region, day-of-year), the mean and sample
// standard deviation of defined rolling sums whose year lies in baseline.
// Every group observed in the baseline years gets an entry, even when none of
// its rolling sums are defined, so the scorer can tell "no samples" from "no group".
func EstimateBaseline(rolled []RollingObservation, baseline YearRange) BaselineTable {
	samples := make(map[BaselineKey][]float64)
	for i := range rolled {
		row := &rolled[i]
		if !baseline.Contains(row.Year) {
			continue
		}
		key := BaselineKey{Region: row.Region, DayOfYear: row.DayOfYear}
		vals := samples[key]
		if row.RollingSum != nil {
			vals = append(vals, *row.RollingSum)
		}
		samples[key] = vals
	}

	table := make(BaselineTable, len(samples))
	for key, vals := range samples {
		table[key] = newBaselineStat(key, vals)
	}
	return table
}

func newBaselineStat(key BaselineKey, vals []float64) BaselineStat {
	stat := BaselineStat{Region: key.Region, DayOfYear: key.DayOfYear, Samples: len(vals)}
	if len(vals) >= 1 {
		if mean, err := stats.Mean(vals); err == nil {
			stat.Mean = float64Ptr(mean)
		}
	}
	if len(vals) >= 2 {
		if sd, err := stats.StandardDeviationSample(vals); err == nil && !math.IsNaN(sd) {
			stat.Std = float64Ptr(sd)
		}
	}
	return stat
}

// Status classifies the group: insufficient samples when mean or std is undefined,
// undefined anomaly when the deviation is zero.
func (b BaselineStat) Status() Status {
	if b.Mean == nil || b.Std == nil {
		return StatusInsufficientBaselineSamples
	}
	if isZeroStd(*b.Std, *b.Mean) {
		return StatusUndefinedAnomaly
	}
	return StatusOK
}

func isZeroStd(std, mean float64) bool {
	return std <= zeroStdTolerance*math.Max(1, math.Abs(mean))
}
