package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rolledAt(region string, year, doy int, sum *float64) RollingObservation {
	d := day(year, 1, 1).AddDate(0, 0, doy-1)
	return RollingObservation{Observation: NewObservation(region, d, 0), RollingSum: sum}
}

func TestEstimateBaseline_MeanAndSampleStd(t *testing.T) {
	rolled := []RollingObservation{
		rolledAt(testScotland, 2000, 10, float64Ptr(1)),
		rolledAt(testScotland, 2001, 10, float64Ptr(2)),
		rolledAt(testScotland, 2002, 10, float64Ptr(3)),
	}

	table := EstimateBaseline(rolled, YearRange{Start: 2000, End: 2002})

	stat, ok := table.Lookup(testScotland, 10)
	require.True(t, ok)
	require.NotNil(t, stat.Mean)
	require.NotNil(t, stat.Std)
	assert.InDelta(t, 2.0, *stat.Mean, 1e-12)
	assert.InDelta(t, 1.0, *stat.Std, 1e-12, "sample std uses n-1")
	assert.Equal(t, 3, stat.Samples)
	assert.Equal(t, StatusOK, stat.Status())
}

func TestEstimateBaseline_IgnoresYearsOutsideRange(t *testing.T) {
	inRange := []RollingObservation{
		rolledAt(testScotland, 2000, 10, float64Ptr(1)),
		rolledAt(testScotland, 2001, 10, float64Ptr(2)),
		rolledAt(testScotland, 2002, 10, float64Ptr(3)),
	}
	withOutliers := append([]RollingObservation{
		rolledAt(testScotland, 1999, 10, float64Ptr(500)),
		rolledAt(testScotland, 1999, 11, float64Ptr(500)),
	}, inRange...)
	withOutliers = append(withOutliers, rolledAt(testScotland, 2003, 10, float64Ptr(-500)))

	baseline := YearRange{Start: 2000, End: 2002}
	assert.Equal(t, EstimateBaseline(inRange, baseline), EstimateBaseline(withOutliers, baseline))
}

func TestEstimateBaseline_GroupsByRegion(t *testing.T) {
	rolled := []RollingObservation{
		rolledAt(testScotland, 2000, 10, float64Ptr(1)),
		rolledAt(testScotland, 2001, 10, float64Ptr(3)),
		rolledAt(testEngland, 2000, 10, float64Ptr(10)),
		rolledAt(testEngland, 2001, 10, float64Ptr(30)),
	}

	table := EstimateBaseline(rolled, YearRange{Start: 2000, End: 2001})

	scot, _ := table.Lookup(testScotland, 10)
	eng, _ := table.Lookup(testEngland, 10)
	assert.InDelta(t, 2.0, *scot.Mean, 1e-12)
	assert.InDelta(t, 20.0, *eng.Mean, 1e-12)
}

func TestEstimateBaseline_UndefinedStatistics(t *testing.T) {
	rolled := []RollingObservation{
		rolledAt(testScotland, 2000, 366, float64Ptr(12)),
		rolledAt(testScotland, 2000, 1, nil),
		rolledAt(testScotland, 2001, 1, nil),
	}

	table := EstimateBaseline(rolled, YearRange{Start: 2000, End: 2001})

	t.Run("single sample has no deviation", func(t *testing.T) {
		stat, ok := table.Lookup(testScotland, 366)
		require.True(t, ok)
		require.NotNil(t, stat.Mean)
		assert.InDelta(t, 12.0, *stat.Mean, 1e-12)
		assert.Nil(t, stat.Std)
		assert.Equal(t, StatusInsufficientBaselineSamples, stat.Status())
	})

	t.Run("group without defined sums still exists", func(t *testing.T) {
		stat, ok := table.Lookup(testScotland, 1)
		require.True(t, ok)
		assert.Nil(t, stat.Mean)
		assert.Nil(t, stat.Std)
		assert.Equal(t, 0, stat.Samples)
		assert.Equal(t, StatusInsufficientBaselineSamples, stat.Status())
	})

	t.Run("unobserved day has no group", func(t *testing.T) {
		_, ok := table.Lookup(testScotland, 2)
		assert.False(t, ok)
	})
}

func TestBaselineStat_Status(t *testing.T) {
	tests := []struct {
		name     string
		stat     BaselineStat
		expected Status
	}{
		{"defined", BaselineStat{Mean: float64Ptr(30), Std: float64Ptr(2)}, StatusOK},
		{"zero deviation", BaselineStat{Mean: float64Ptr(30), Std: float64Ptr(0)}, StatusUndefinedAnomaly},
		{"rounding noise deviation", BaselineStat{Mean: float64Ptr(30), Std: float64Ptr(3e-15)}, StatusUndefinedAnomaly},
		{"small but real deviation", BaselineStat{Mean: float64Ptr(30), Std: float64Ptr(1e-6)}, StatusOK},
		{"missing deviation", BaselineStat{Mean: float64Ptr(30)}, StatusInsufficientBaselineSamples},
		{"missing mean", BaselineStat{}, StatusInsufficientBaselineSamples},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.stat.Status())
		})
	}
}
