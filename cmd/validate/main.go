// Command validate performs data integrity checks on a directory of HadUKP
// daily series files: every region parses, calendars are complete enough to
// score, values are physically plausible, region spans agree, and the anomaly
// computation succeeds with default parameters.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data/mock/hadukp
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/precip-anomaly/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type options struct {
	dataDir    string
	maxMissing float64
	maxDaily   float64
}

func main() {
	var opts options
	flag.StringVar(&opts.dataDir, "data-dir", "", "directory containing HadUKP daily series files")
	flag.Float64Var(&opts.maxMissing, "max-missing", 0.05, "largest tolerated fraction of missing days per region")
	flag.Float64Var(&opts.maxDaily, "max-daily", 250, "largest plausible regional daily total in mm")
	flag.Parse()

	if opts.dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(os.Stdout, opts); code != 0 {
		os.Exit(code)
	}
}

// regionData is one parsed series file.
type regionData struct {
	region domain.Region
	obs    []domain.Observation
}

func run(w io.Writer, opts options) int {
	fmt.Fprintln(w, "=== HadUKP Data Integrity Validation ===")
	fmt.Fprintln(w)

	parse, loaded := validateParse(opts.dataDir)
	phases := []*phase{
		parse,
		validateCalendar(loaded, opts.maxMissing),
		validateValueRange(loaded, opts.maxDaily),
		validateSpanAlignment(loaded),
		validateComputation(loaded),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Regions: %d of %d loaded, %d observations\n",
		len(loaded), len(domain.Regions()), countObservations(loaded))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: every region file exists and parses ──

func validateParse(dir string) (*phase, []regionData) {
	p := &phase{name: "Phase 1: Series files parse"}
	var loaded []regionData
	for _, r := range domain.Regions() {
		obs, err := loadRegion(dir, r)
		if err != nil {
			p.errorf("%s: %v", r.Name, err)
			continue
		}
		if len(obs) == 0 {
			p.errorf("%s: no observations", r.Name)
			continue
		}
		loaded = append(loaded, regionData{region: r, obs: obs})
	}
	return p, loaded
}

func loadRegion(dir string, r domain.Region) ([]domain.Observation, error) {
	f, err := os.Open(filepath.Join(dir, r.SourceFile()))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return domain.ParseDailySeries(f, r.Name)
}

// ── Phase 2: calendar coverage ──

func validateCalendar(loaded []regionData, maxMissing float64) *phase {
	p := &phase{name: "Phase 2: Calendar coverage"}
	for _, d := range loaded {
		first, last := d.obs[0].Date, d.obs[len(d.obs)-1].Date
		days := int(last.Sub(first).Hours()/24) + 1
		missing := days - len(d.obs)
		if frac := float64(missing) / float64(days); frac > maxMissing {
			p.errorf("%s: %d of %d days missing (%.1f%%)", d.region.Name, missing, days, frac*100)
		}
		if gap := longestGap(d.obs); gap > 31 {
			p.errorf("%s: %d consecutive days missing", d.region.Name, gap)
		}
	}
	return p
}

// longestGap returns the longest run of missing days between observations.
func longestGap(obs []domain.Observation) int {
	longest := 0
	for i := 1; i < len(obs); i++ {
		gap := int(obs[i].Date.Sub(obs[i-1].Date).Hours()/24) - 1
		if gap > longest {
			longest = gap
		}
	}
	return longest
}

// ── Phase 3: value range ──

func validateValueRange(loaded []regionData, maxDaily float64) *phase {
	p := &phase{name: "Phase 3: Daily totals in range"}
	for _, d := range loaded {
		for _, o := range d.obs {
			if o.Precipitation > maxDaily {
				p.errorf("%s: %s total %.2f mm exceeds %.0f mm",
					d.region.Name, o.Date.Format(time.DateOnly), o.Precipitation, maxDaily)
			}
		}
	}
	return p
}

// ── Phase 4: regions cover the same years ──

func validateSpanAlignment(loaded []regionData) *phase {
	p := &phase{name: "Phase 4: Region year spans agree"}
	if len(loaded) == 0 {
		return p
	}
	ref, _ := domain.AvailableYears(loaded[0].obs)
	for _, d := range loaded[1:] {
		span, _ := domain.AvailableYears(d.obs)
		if span != ref {
			p.errorf("%s: spans %s, %s spans %s", d.region.Name, span, loaded[0].region.Name, ref)
		}
	}
	return p
}

// ── Phase 5: default computation succeeds ──

func validateComputation(loaded []regionData) *phase {
	p := &phase{name: "Phase 5: Default anomaly computation"}
	if len(loaded) == 0 {
		p.errorf("no regions loaded")
		return p
	}

	var all []domain.Observation
	for _, d := range loaded {
		all = append(all, d.obs...)
	}
	params := domain.DefaultParams()
	params.Regions = make([]string, 0, len(loaded))
	for _, d := range loaded {
		params.Regions = append(params.Regions, d.region.Name)
	}

	result, err := domain.ComputeAnomalies(all, params)
	if err != nil {
		p.errorf("compute: %v", err)
		return p
	}
	if result.StatusCounts[domain.StatusOK] == 0 {
		p.errorf("no rows scored ok (%v)", result.StatusCounts)
	}
	return p
}

func countObservations(loaded []regionData) int {
	n := 0
	for _, d := range loaded {
		n += len(d.obs)
	}
	return n
}
