package domain

import "errors"

// ComputeAnomalies runs the full pipeline over an already-loaded batch:
// validate parameters, roll, estimate the baseline and score the display years.
// Regions in the result follow the order of p.Regions.
func ComputeAnomalies(obs []Observation, p Params) (Result, error) {
	span, ok := AvailableYears(obs)
	if !ok {
		return Result{}, &DataUnavailableError{Err: errors.New("no observations loaded")}
	}
	p, err := Validate(p, span)
	if err != nil {
		return Result{}, err
	}

	rolled := Aggregate(obs, p.Window, p.Regions)
	table := EstimateBaseline(rolled, p.Baseline)
	rows, dropped := Score(rolled, table, p.Years)
	return NewResult(p, rows, dropped), nil
}
