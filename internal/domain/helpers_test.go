package domain

import (
	"time"
)

const (
	testScotland = "scotland"
	testEngland  = "england & wales"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// dailySeries builds one observation per day from start to end inclusive.
func dailySeries(region string, start, end time.Time, value func(time.Time) float64) []Observation {
	var out []Observation
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, NewObservation(region, d, value(d)))
	}
	return out
}

func constant(v float64) func(time.Time) float64 {
	return func(time.Time) float64 { return v }
}

// wobble is a deterministic, non-constant precipitation signal.
func wobble(d time.Time) float64 {
	return float64((d.YearDay()*7+d.Year()*13)%11) + 0.25
}

func without(obs []Observation, drop ...time.Time) []Observation {
	skip := make(map[time.Time]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}
	out := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if !skip[o.Date] {
			out = append(out, o)
		}
	}
	return out
}
