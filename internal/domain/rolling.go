package domain

import "sort"

// MinObservations is the number of observations a window of the given width
// needs before its sum is defined.
func MinObservations(window int) int {
	return window / 3
}

// RollingSum computes the trailing precipitation sum for one region's series.
// The window covers the calendar interval (date-window days, date], so gaps in
// the record shorten the observation count but never stretch the time span.
// A sum is only defined when the window holds at least MinObservations(window)
// observations.
func RollingSum(series []Observation, window int) []RollingObservation {
	series = sortedByDate(series)
	minObs := MinObservations(window)
	out := make([]RollingObservation, len(series))

	lo := 0
	var sum float64
	for i := range series {
		sum += series[i].Precipitation
		cutoff := series[i].Date.AddDate(0, 0, -window)
		for lo < i && !series[lo].Date.After(cutoff) {
			sum -= series[lo].Precipitation
			lo++
		}
		// Subtraction can leave a tiny negative residue after a dry spell.
		if sum < 0 {
			sum = 0
		}

		out[i] = RollingObservation{Observation: series[i]}
		if i-lo+1 < minObs {
			continue
		}
		out[i].RollingSum = float64Ptr(sum)
	}
	return out
}

// Aggregate computes rolling sums independently for each requested region and
// concatenates them in request order. Observations of other regions are ignored.
func Aggregate(obs []Observation, window int, regions []string) []RollingObservation {
	byRegion := PartitionByRegion(obs)

	var total int
	for _, r := range regions {
		total += len(byRegion[r])
	}
	out := make([]RollingObservation, 0, total)
	for _, r := range regions {
		out = append(out, RollingSum(byRegion[r], window)...)
	}
	return out
}

// PartitionByRegion groups observations by region, preserving input order within each group.
func PartitionByRegion(obs []Observation) map[string][]Observation {
	out := make(map[string][]Observation)
	for i := range obs {
		out[obs[i].Region] = append(out[obs[i].Region], obs[i])
	}
	return out
}

// sortedByDate returns series unchanged if already ordered, otherwise a sorted copy.
func sortedByDate(series []Observation) []Observation {
	if sort.SliceIsSorted(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) }) {
		return series
	}
	cp := make([]Observation, len(series))
	copy(cp, series)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Date.Before(cp[j].Date) })
	return cp
}
