// Package mockdata generates synthetic HadUKP daily series for fixtures and tests.
package mockdata

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/precip-anomaly/internal/domain"
)

// Options controls series generation. The zero value is not useful; start from Defaults.
type Options struct {
	Start time.Time
	End   time.Time
	Seed  int64

	// Constant, when non-nil, replaces the seasonal signal with a flat value.
	Constant *float64

	// GapEvery writes a missing-value sentinel on every Nth day. Zero disables gaps.
	GapEvery int
}

// Defaults covers 1931 through 2024, the span of the published series.
func Defaults() Options {
	return Options{
		Start: time.Date(1931, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Seed:  1,
	}
}

// Series returns one observation per day from opts.Start to opts.End for the
// region. Gap days are omitted; the file writer records them as missing values.
func Series(region domain.Region, opts Options) []domain.Observation {
	rng := rand.New(rand.NewSource(opts.Seed ^ int64(regionHash(region))))
	offset := float64(regionHash(region)%7) * 0.2

	var out []domain.Observation
	i := 0
	for d := opts.Start; !d.After(opts.End); d = d.AddDate(0, 0, 1) {
		i++
		v := seasonal(d, offset, rng)
		if opts.Constant != nil {
			v = *opts.Constant
		}
		if opts.GapEvery > 0 && i%opts.GapEvery == 0 {
			continue
		}
		out = append(out, domain.NewObservation(region.Name, d, v))
	}
	return out
}

// seasonal is wetter in winter, with multiplicative noise and dry days.
func seasonal(d time.Time, offset float64, rng *rand.Rand) float64 {
	phase := 2 * math.Pi * float64(d.YearDay()-15) / 365.25
	mean := 2.6 + offset + 1.2*math.Cos(phase)
	if rng.Float64() < 0.35 {
		return 0
	}
	v := mean * rng.ExpFloat64()
	return math.Round(v*100) / 100
}

func regionHash(r domain.Region) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(r.Code))
	return h.Sum32()
}

// WriteDir writes one HadUKP file per region into dir, creating it if needed.
func WriteDir(dir string, regions []domain.Region, opts Options) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, r := range regions {
		if err := writeFile(filepath.Join(dir, r.SourceFile()), r, Series(r, opts)); err != nil {
			return fmt.Errorf("write %s: %w", r.SourceFile(), err)
		}
	}
	return nil
}

func writeFile(path string, r domain.Region, obs []domain.Observation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := domain.WriteDailySeries(f, r, obs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
