package hadukp

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/precip-anomaly/internal/domain"
	"github.com/stretchr/testify/require"
)

var (
	scotland = mustRegion("scotland")
	england  = mustRegion("england & wales")
)

func mustRegion(name string) domain.Region {
	r, ok := domain.LookupRegion(name)
	if !ok {
		panic("unknown region " + name)
	}
	return r
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seriesFile renders days consecutive days of value starting 2000-01-01.
func seriesFile(t *testing.T, region domain.Region, days int, value float64) []byte {
	t.Helper()
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]domain.Observation, 0, days)
	for i := range days {
		obs = append(obs, domain.NewObservation(region.Name, start.AddDate(0, 0, i), value))
	}
	var buf bytes.Buffer
	require.NoError(t, domain.WriteDailySeries(&buf, region, obs))
	return buf.Bytes()
}
