package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = `Hadley Centre Scotland precipitation series
Daily totals (mm)
Source: HadUKP
Date        Value
`

func TestParseDailySeries(t *testing.T) {
	t.Run("well formed file", func(t *testing.T) {
		body := testHeader + "1931-01-01   0.40\n1931-01-02   12.10\n\n1931-01-03 0.00\n"

		obs, err := ParseDailySeries(strings.NewReader(body), testScotland)
		require.NoError(t, err)
		require.Len(t, obs, 3)

		assert.Equal(t, testScotland, obs[0].Region)
		assert.Equal(t, day(1931, 1, 1), obs[0].Date)
		assert.Equal(t, 0.40, obs[0].Precipitation)
		assert.Equal(t, 12.10, obs[1].Precipitation)
		assert.Equal(t, 3, obs[2].DayOfYear)
		assert.Equal(t, 1, obs[2].Month)
		assert.Equal(t, 1931, obs[2].Year)
	})

	t.Run("missing sentinel leaves a gap", func(t *testing.T) {
		body := testHeader + "1931-01-01 1.0\n1931-01-02 -99.99\n1931-01-03 2.0\n"

		obs, err := ParseDailySeries(strings.NewReader(body), testScotland)
		require.NoError(t, err)
		require.Len(t, obs, 2)
		assert.Equal(t, day(1931, 1, 3), obs[1].Date)
	})

	t.Run("unsorted rows are ordered by date", func(t *testing.T) {
		body := testHeader + "1931-01-03 3\n1931-01-01 1\n1931-01-02 2\n"

		obs, err := ParseDailySeries(strings.NewReader(body), testScotland)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, []float64{obs[0].Precipitation, obs[1].Precipitation, obs[2].Precipitation})
	})

	t.Run("header line optional", func(t *testing.T) {
		body := "a\nb\nc\n2000-02-29 5.5\n"

		obs, err := ParseDailySeries(strings.NewReader(body), testScotland)
		require.NoError(t, err)
		require.Len(t, obs, 1)
		assert.Equal(t, 60, obs[0].DayOfYear)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name    string
			body    string
			message string
		}{
			{"bad date", testHeader + "1931-13-01 1.0\n", "line 5: invalid date"},
			{"bad value", testHeader + "1931-01-01 wet\n", "line 5: invalid value"},
			{"single column", testHeader + "1931-01-01\n", "line 5: expected date and value"},
			{"duplicate date", testHeader + "1931-01-01 1\n1931-01-01 2\n", "duplicate date"},
			{"too short", "only\ntwo\n", "no data rows"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseDailySeries(strings.NewReader(tt.body), testScotland)
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.message)
			})
		}
	})
}

func TestNewObservation_LeapYearCalendar(t *testing.T) {
	tests := []struct {
		name string
		date string
		doy  int
	}{
		{"1 March common year", "2001-03-01", 60},
		{"29 February leap year", "2000-02-29", 60},
		{"1 March leap year", "2000-03-01", 61},
		{"31 December leap year", "2000-12-31", 366},
		{"31 December common year", "2001-12-31", 365},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := ParseDailySeries(strings.NewReader(testHeader+tt.date+" 1\n"), testScotland)
			require.NoError(t, err)
			require.Len(t, obs, 1)
			assert.Equal(t, tt.doy, obs[0].DayOfYear)
		})
	}
}

func TestWriteDailySeries_ReadBack(t *testing.T) {
	region, ok := LookupRegion(testScotland)
	require.True(t, ok)
	in := dailySeries(testScotland, day(1999, 12, 30), day(2000, 1, 2), wobble)

	var buf strings.Builder
	require.NoError(t, WriteDailySeries(&buf, region, in))

	out, err := ParseDailySeries(strings.NewReader(buf.String()), testScotland)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].Date, out[i].Date)
		assert.InDelta(t, in[i].Precipitation, out[i].Precipitation, 0.005)
	}
}

func TestWriteDailySeries_FillsGapsWithMissingValue(t *testing.T) {
	region, ok := LookupRegion(testScotland)
	require.True(t, ok)
	in := []Observation{
		NewObservation(testScotland, day(2000, 2, 27), 1.5),
		NewObservation(testScotland, day(2000, 3, 1), 2.25),
	}

	var buf strings.Builder
	require.NoError(t, WriteDailySeries(&buf, region, in))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4+4)
	assert.Equal(t, []string{
		"2000-02-27      1.50",
		"2000-02-28    -99.99",
		"2000-02-29    -99.99",
		"2000-03-01      2.25",
	}, lines[4:])

	out, err := ParseDailySeries(strings.NewReader(buf.String()), testScotland)
	require.NoError(t, err)
	require.Len(t, out, 2, "missing rows are skipped on read")
	for _, o := range out {
		assert.GreaterOrEqual(t, o.Precipitation, 0.0)
	}
}
