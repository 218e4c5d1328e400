// Command genmock writes synthetic HadUKP daily series for every region into a
// directory laid out like the Met Office download area. It can also write the
// anomaly result for those files as a JSON fixture, computed with the real
// domain package so test assertions track pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/hadukp \
//	  -expected data/mock/anomalies_2021_2024.json
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/precip-anomaly/internal/domain"
	"github.com/couchcryptid/precip-anomaly/internal/mockdata"
	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	defaults := mockdata.Defaults()

	out := flag.String("out", "", "output directory for the generated series files")
	expected := flag.String("expected", "", "optional output path for the default anomaly result as JSON")
	start := flag.Int("start", defaults.Start.Year(), "first year of generated data")
	end := flag.Int("end", defaults.End.Year(), "last year of generated data")
	seed := flag.Int64("seed", defaults.Seed, "random seed")
	constant := flag.Float64("constant", -1, "write this flat daily value instead of a seasonal signal (negative disables)")
	gapEvery := flag.Int("gap-every", 0, "write a missing-value sentinel on every Nth day (0 disables)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *end < *start {
		return fmt.Errorf("-end %d is before -start %d", *end, *start)
	}

	opts := mockdata.Options{
		Start:    time.Date(*start, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(*end, time.December, 31, 0, 0, 0, 0, time.UTC),
		Seed:     *seed,
		GapEvery: *gapEvery,
	}
	if *constant >= 0 {
		opts.Constant = constant
	}

	regions := domain.Regions()
	if err := mockdata.WriteDir(*out, regions, opts); err != nil {
		return fmt.Errorf("writing series: %w", err)
	}
	log.Printf("wrote %d regions to %s (%d-%d)", len(regions), *out, *start, *end)

	if *expected == "" {
		return nil
	}

	// Fixed clock so ComputedAt is reproducible across runs.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(*end+1, time.January, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	var obs []domain.Observation //nolint:prealloc // size depends on gap pattern
	for _, r := range regions {
		obs = append(obs, readBack(*out, r)...)
	}

	params := domain.DefaultParams()
	params.Years = clampYears(params.Years, *start, *end)
	result, err := domain.ComputeAnomalies(obs, params)
	if err != nil {
		return fmt.Errorf("computing fixture: %w", err)
	}

	if err := writeJSON(*expected, result); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *expected)

	printStats(result)
	return nil
}

// readBack parses the written file so the fixture reflects exactly what the
// loader will see, including skipped sentinels.
func readBack(dir string, r domain.Region) []domain.Observation {
	f, err := os.Open(filepath.Join(dir, r.SourceFile()))
	if err != nil {
		log.Fatalf("reopen %s: %v", r.SourceFile(), err)
	}
	defer f.Close()

	obs, err := domain.ParseDailySeries(f, r.Name)
	if err != nil {
		log.Fatalf("parse %s: %v", r.SourceFile(), err)
	}
	return obs
}

func clampYears(y domain.YearRange, start, end int) domain.YearRange {
	if y.End > end {
		y.End = end
	}
	if y.Start > y.End {
		y.Start = y.End
	}
	if y.Start < start {
		y.Start = start
	}
	return y
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(result domain.Result) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Params: regions=%v years=%s baseline=%s window=%d\n",
		result.Params.Regions, result.Params.Years, result.Params.Baseline, result.Params.Window)
	fmt.Printf("Rows: %d (dropped %d)\n", len(result.Rows), result.Dropped)

	statuses := make([]string, 0, len(result.StatusCounts))
	for s := range result.StatusCounts {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Printf("  %-32s %d\n", s, result.StatusCounts[domain.Status(s)])
	}

	for _, series := range result.Series() {
		lo, hi, n := extremes(series.Points)
		fmt.Printf("%s: %d scored points, z range [%.3f, %.3f]\n", series.Region, n, lo, hi)
	}
}

func extremes(points []domain.SeriesPoint) (lo, hi float64, n int) {
	for _, p := range points {
		if p.Z == nil {
			continue
		}
		if n == 0 || *p.Z < lo {
			lo = *p.Z
		}
		if n == 0 || *p.Z > hi {
			hi = *p.Z
		}
		n++
	}
	return lo, hi, n
}
