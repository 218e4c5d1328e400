package domain

import "time"

// Observation is one day's precipitation total for one region.
type Observation struct {
	Region        string    `json:"region"`
	Date          time.Time `json:"date"`
	Precipitation float64   `json:"precip"`
	DayOfYear     int       `json:"doy"`
	Month         int       `json:"month"`
	Year          int       `json:"year"`
}

// NewObservation builds an Observation with its calendar fields derived from date.
// The date is truncated to UTC midnight.
func NewObservation(region string, date time.Time, precip float64) Observation {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return Observation{
		Region:        region,
		Date:          d,
		Precipitation: precip,
		DayOfYear:     d.YearDay(),
		Month:         int(d.Month()),
		Year:          d.Year(),
	}
}

// RollingObservation is an Observation with its trailing-window sum.
// RollingSum is nil when the window held too few observations.
type RollingObservation struct {
	Observation
	RollingSum *float64 `json:"rolling_sum"`
}

// BaselineKey identifies a baseline group.
type BaselineKey struct {
	Region    string
	DayOfYear int
}

// BaselineStat summarizes the rolling sums of one (region, day-of-year) group
// within the baseline years. Mean is nil with no samples, Std is nil with fewer than two.
type BaselineStat struct {
	Region    string   `json:"region"`
	DayOfYear int      `json:"doy"`
	Mean      *float64 `json:"base_mean"`
	Std       *float64 `json:"base_std"`
	Samples   int      `json:"samples"`
}

// BaselineTable indexes baseline statistics by region and day-of-year.
type BaselineTable map[BaselineKey]BaselineStat

// Lookup returns the statistic for a region and day-of-year.
func (t BaselineTable) Lookup(region string, doy int) (BaselineStat, bool) {
	s, ok := t[BaselineKey{Region: region, DayOfYear: doy}]
	return s, ok
}

// Status explains whether a scored row carries a z-score.
type Status string

const (
	StatusOK                          Status = "ok"
	StatusInsufficientWindow          Status = "insufficient_window"
	StatusInsufficientBaselineSamples Status = "insufficient_baseline_samples"
	StatusUndefinedAnomaly            Status = "undefined_anomaly"
)

// ScoredObservation is a RollingObservation joined to its baseline with a z-score.
// Z is nil unless Status is StatusOK.
type ScoredObservation struct {
	RollingObservation
	BaseMean *float64 `json:"base_mean"`
	BaseStd  *float64 `json:"base_std"`
	Z        *float64 `json:"z"`
	Status   Status   `json:"status"`
}

// Result is the output of one anomaly computation.
type Result struct {
	Params       Params              `json:"params"`
	Rows         []ScoredObservation `json:"rows"`
	Dropped      int                 `json:"dropped"`
	StatusCounts map[Status]int      `json:"status_counts"`
	ComputedAt   time.Time           `json:"computed_at"`
}

// SeriesPoint is one plotted point of a region's anomaly line.
type SeriesPoint struct {
	Date       time.Time `json:"date"`
	Z          *float64  `json:"z"`
	RollingSum *float64  `json:"rolling_sum"`
	Status     Status    `json:"status"`
}

// RegionSeries is the anomaly line for one region.
type RegionSeries struct {
	Region string        `json:"region"`
	Points []SeriesPoint `json:"points"`
}

// Series groups the result rows into one line per region, in request order.
func (r Result) Series() []RegionSeries {
	out := make([]RegionSeries, 0, len(r.Params.Regions))
	index := make(map[string]int, len(r.Params.Regions))
	for _, name := range r.Params.Regions {
		index[name] = len(out)
		out = append(out, RegionSeries{Region: name, Points: []SeriesPoint{}})
	}
	for i := range r.Rows {
		row := &r.Rows[i]
		j, ok := index[row.Region]
		if !ok {
			continue
		}
		out[j].Points = append(out[j].Points, SeriesPoint{
			Date:       row.Date,
			Z:          row.Z,
			RollingSum: row.RollingSum,
			Status:     row.Status,
		})
	}
	return out
}

// NewResult assembles a Result and tallies row statuses.
func NewResult(params Params, rows []ScoredObservation, dropped int) Result {
	counts := make(map[Status]int)
	for i := range rows {
		counts[rows[i].Status]++
	}
	return Result{
		Params:       params,
		Rows:         rows,
		Dropped:      dropped,
		StatusCounts: counts,
		ComputedAt:   clock.Now().UTC(),
	}
}

// AvailableYears returns the span of years covered by the observations.
func AvailableYears(obs []Observation) (YearRange, bool) {
	if len(obs) == 0 {
		return YearRange{}, false
	}
	span := YearRange{Start: obs[0].Year, End: obs[0].Year}
	for i := range obs {
		if obs[i].Year < span.Start {
			span.Start = obs[i].Year
		}
		if obs[i].Year > span.End {
			span.End = obs[i].Year
		}
	}
	return span, true
}

func float64Ptr(v float64) *float64 { return &v }
