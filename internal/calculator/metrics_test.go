package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSimpleReturns_FirstIsZero(t *testing.T) {
	rets := SimpleReturns([]float64{50, 55, 44})
	require.Len(t, rets, 3)
	assert.Equal(t, 0.0, rets[0])
	assert.InDelta(t, 0.10, rets[1], 1e-12)
	assert.InDelta(t, -0.20, rets[2], 1e-12)
}

func TestSimpleReturns_Empty(t *testing.T) {
	assert.Empty(t, SimpleReturns(nil))
}

func TestBenchmarkCurve(t *testing.T) {
	curve := BenchmarkCurve([]float64{0, 0.1, -0.5}, 1000)
	require.Len(t, curve, 3)
	assert.InDelta(t, 1000, curve[0], 1e-9)
	assert.InDelta(t, 1100, curve[1], 1e-9)
	assert.InDelta(t, 550, curve[2], 1e-9)
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"monotone", []float64{1, 2, 3, 3, 4}, 0},
		{"single", []float64{10}, 0},
		{"dip", []float64{100, 120, 90, 130, 117}, 90.0/120 - 1},
		{"all down", []float64{100, 80, 50}, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(tt.values)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.LessOrEqual(t, got, 0.0)
		})
	}
}

func TestStdDev_Sample(t *testing.T) {
	// sample stdev of 2,4,4,4,5,5,7,9 is sqrt(32/7)
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, math.Sqrt(32.0/7.0), got, 1e-12)
	assert.Equal(t, 0.0, StdDev([]float64{3}))
}

func TestCAGR_Fallback(t *testing.T) {
	assert.Equal(t, 0.0, CAGR(0.5, 0))
	assert.Equal(t, 0.0, CAGR(0.5, -1))
	assert.InDelta(t, 0.21, CAGR(0.4641, 2), 1e-4)
}

func TestSharpe_ZeroVol(t *testing.T) {
	assert.Equal(t, 0.0, Sharpe(0.1, 0, 0.04))
	assert.Equal(t, 0.0, Sharpe(0.1, math.NaN(), 0.04))
	assert.InDelta(t, 0.3, Sharpe(0.1, 0.2, 0.04), 1e-12)
}

func TestCompute_SingleDate(t *testing.T) {
	m, err := Compute([]time.Time{day(2020, 1, 2)}, []float64{1000}, DefaultRiskFreeRate)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.TotalReturn)
	assert.Equal(t, 0.0, m.CAGR)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.Volatility)
	assert.Equal(t, 0.0, m.Sharpe)
}

func TestCompute_KnownCurve(t *testing.T) {
	dates := []time.Time{day(2020, 1, 1), day(2020, 7, 1), day(2021, 1, 1)}
	values := []float64{100, 90, 121}
	m, err := Compute(dates, values, 0.04)
	require.NoError(t, err)

	assert.InDelta(t, 0.21, m.TotalReturn, 1e-12)
	years := 366.0 / 365.25
	assert.InDelta(t, math.Pow(1.21, 1/years)-1, m.CAGR, 1e-12)
	assert.InDelta(t, -0.1, m.MaxDrawdown, 1e-12)

	rets := []float64{0, -0.1, 121.0/90 - 1}
	wantVol := StdDev(rets) * math.Sqrt(252)
	assert.InDelta(t, wantVol, m.Volatility, 1e-12)
	assert.InDelta(t, (m.CAGR-0.04)/wantVol, m.Sharpe, 1e-12)
}

func TestCompute_Invalid(t *testing.T) {
	_, err := Compute(nil, nil, 0.04)
	assert.ErrorIs(t, err, ErrInvalidCurve)

	_, err = Compute([]time.Time{day(2020, 1, 1)}, []float64{1, 2}, 0.04)
	assert.ErrorIs(t, err, ErrInvalidCurve)

	_, err = Compute([]time.Time{day(2020, 1, 2), day(2020, 1, 2)}, []float64{1, 2}, 0.04)
	assert.ErrorIs(t, err, ErrInvalidCurve)
}

func TestYearsBetween(t *testing.T) {
	assert.InDelta(t, 1.0, YearsBetween(day(2019, 1, 1), day(2020, 1, 1))*DaysPerYear/365, 1e-12)
	assert.Equal(t, 0.0, YearsBetween(day(2020, 1, 1), day(2020, 1, 1)))
}
