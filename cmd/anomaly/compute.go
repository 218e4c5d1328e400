package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/couchcryptid/precip-anomaly/internal/adapter/hadukp"
	"github.com/couchcryptid/precip-anomaly/internal/config"
	"github.com/couchcryptid/precip-anomaly/internal/domain"
	"github.com/couchcryptid/precip-anomaly/internal/observability"
	"github.com/couchcryptid/precip-anomaly/internal/pipeline"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type computeOptions struct {
	regions  []string
	years    string
	baseline string
	window   int
	dataDir  string
	baseURL  string
	timeout  time.Duration
	format   string
	series   bool
}

func newComputeCmd(root *rootOptions) *cobra.Command {
	opts := &computeOptions{}
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute z-score anomalies for the selected regions and years",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompute(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.regions, "regions", domain.DefaultRegions, "comma-separated region names or codes")
	f.StringVar(&opts.years, "years", domain.DefaultYears.String(), "display years, e.g. 2021-2024")
	f.StringVar(&opts.baseline, "baseline", domain.DefaultBaseline.String(), "baseline years, e.g. 1981-2010")
	f.IntVar(&opts.window, "window", domain.DefaultWindow, "rolling window in days")
	f.StringVar(&opts.dataDir, "data-dir", "", "read HadUKP files from this directory instead of downloading")
	f.StringVar(&opts.baseURL, "base-url", config.DefaultHadUKPBaseURL, "HadUKP download directory")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-file download timeout")
	f.StringVar(&opts.format, "format", "csv", "output format: csv or json")
	f.BoolVar(&opts.series, "series", false, "group JSON output into one series per region")
	return cmd
}

func runCompute(cmd *cobra.Command, root *rootOptions, opts *computeOptions) error {
	if opts.format != "csv" && opts.format != "json" {
		return fmt.Errorf("unknown --format %q (want csv or json)", opts.format)
	}
	params, err := opts.params()
	if err != nil {
		return err
	}

	logger := root.logger(cmd.ErrOrStderr())
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())

	var source hadukp.Fetcher
	if opts.dataDir != "" {
		source = hadukp.NewDirSource(opts.dataDir)
	} else {
		source = hadukp.NewClient(opts.baseURL, opts.timeout, metrics, logger)
	}
	loader := hadukp.NewCachedLoader(source, 1, metrics, logger)
	p := pipeline.New(loader, pipeline.NewScorer(logger), nil, logger, metrics)

	result, err := p.Compute(cmd.Context(), params)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		return writeJSON(out, result, opts.series)
	}
	return writeCSV(out, result)
}

func (o *computeOptions) params() (domain.Params, error) {
	years, err := domain.ParseYearRange(o.years)
	if err != nil {
		return domain.Params{}, &domain.InvalidParameterError{Param: "years", Reason: err.Error()}
	}
	baseline, err := domain.ParseYearRange(o.baseline)
	if err != nil {
		return domain.Params{}, &domain.InvalidParameterError{Param: "baseline", Reason: err.Error()}
	}
	return domain.Params{
		Regions:  o.regions,
		Years:    years,
		Baseline: baseline,
		Window:   o.window,
	}, nil
}

var csvHeader = []string{"region", "date", "precip", "rolling_sum", "base_mean", "base_std", "z", "status"}

func writeCSV(w io.Writer, result domain.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i := range result.Rows {
		row := &result.Rows[i]
		if err := cw.Write([]string{
			row.Region,
			row.Date.Format(time.DateOnly),
			formatFloat(&row.Precipitation),
			formatFloat(row.RollingSum),
			formatFloat(row.BaseMean),
			formatFloat(row.BaseStd),
			formatFloat(row.Z),
			string(row.Status),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatFloat renders undefined values as empty cells.
func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func writeJSON(w io.Writer, result domain.Result, asSeries bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if !asSeries {
		return enc.Encode(result)
	}
	return enc.Encode(struct {
		Params       domain.Params         `json:"params"`
		Series       []domain.RegionSeries `json:"series"`
		Dropped      int                   `json:"dropped"`
		StatusCounts map[domain.Status]int `json:"status_counts"`
	}{result.Params, result.Series(), result.Dropped, result.StatusCounts})
}
