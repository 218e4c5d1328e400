package domain

// Score joins rolling observations in the display years to their baseline
// group and computes z = (rolling_sum - base_mean) / base_std.
//
// Rows whose (region, day-of-year) has no baseline group are dropped and
// counted. Rows that join but cannot be scored are kept with a nil Z and a
// status naming the reason. Input order is preserved.
func Score(rolled []RollingObservation, table BaselineTable, display YearRange) ([]ScoredObservation, int) {
	out := make([]ScoredObservation, 0, len(rolled))
	dropped := 0

	for i := range rolled {
		row := rolled[i]
		if !display.Contains(row.Year) {
			continue
		}
		base, ok := table.Lookup(row.Region, row.DayOfYear)
		if !ok {
			dropped++
			continue
		}
		out = append(out, scoreRow(row, base))
	}
	return out, dropped
}

func scoreRow(row RollingObservation, base BaselineStat) ScoredObservation {
	scored := ScoredObservation{
		RollingObservation: row,
		BaseMean:           base.Mean,
		BaseStd:            base.Std,
	}

	switch {
	case row.RollingSum == nil:
		scored.Status = StatusInsufficientWindow
	case base.Status() != StatusOK:
		scored.Status = base.Status()
	default:
		z := (*row.RollingSum - *base.Mean) / *base.Std
		scored.Z = float64Ptr(z)
		scored.Status = StatusOK
	}
	return scored
}
