package calculator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"TalmudBacktest/internal/model"
)

const (
	// TradingDaysPerYear annualizes daily volatility.
	TradingDaysPerYear = 252.0
	// DaysPerYear converts elapsed calendar days into years for CAGR.
	DaysPerYear = 365.25
	// DefaultRiskFreeRate is the reference annual risk-free rate for Sharpe.
	DefaultRiskFreeRate = 0.04
)

// ErrInvalidCurve is returned when an equity curve is empty, misaligned or not date-ordered.
var ErrInvalidCurve = errors.New("invalid equity curve")

// TotalReturn returns last/first - 1.
func TotalReturn(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]/values[0] - 1
}

// CAGR annualizes totalReturn over the elapsed years. Zero or negative spans yield 0.
func CAGR(totalReturn, years float64) float64 {
	if years <= 0 {
		return 0
	}
	return math.Pow(1+totalReturn, 1/years) - 1
}

// MaxDrawdown returns the most negative value of equity/runningMax - 1. Always <= 0.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	mdd := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if dd := v/peak - 1; dd < mdd {
			mdd = dd
		}
	}
	return mdd
}

// StdDev is the sample standard deviation (N-1). Fewer than two values yield 0.
func StdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n - 1)
	return math.Sqrt(variance)
}

// AnnualizedVolatility is the sample stdev of daily returns scaled by sqrt(252).
func AnnualizedVolatility(values []float64) float64 {
	return StdDev(DailyReturns(values)) * math.Sqrt(TradingDaysPerYear)
}

// Sharpe returns (cagr - riskFree) / vol, or 0 when vol is not positive.
func Sharpe(cagr, vol, riskFree float64) float64 {
	if !(vol > 0) {
		return 0
	}
	return (cagr - riskFree) / vol
}

// Compute derives the full metrics tuple of an equity curve.
func Compute(dates []time.Time, values []float64, riskFree float64) (model.Metrics, error) {
	if len(values) == 0 {
		return model.Metrics{}, fmt.Errorf("%w: no points", ErrInvalidCurve)
	}
	if len(dates) != len(values) {
		return model.Metrics{}, fmt.Errorf("%w: %d dates for %d values", ErrInvalidCurve, len(dates), len(values))
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return model.Metrics{}, fmt.Errorf("%w: date %s not after %s", ErrInvalidCurve,
				dates[i].Format("2006-01-02"), dates[i-1].Format("2006-01-02"))
		}
	}

	total := TotalReturn(values)
	cagr := CAGR(total, YearsBetween(dates[0], dates[len(dates)-1]))
	vol := AnnualizedVolatility(values)
	return model.Metrics{
		TotalReturn: total,
		CAGR:        cagr,
		MaxDrawdown: MaxDrawdown(values),
		Volatility:  vol,
		Sharpe:      Sharpe(cagr, vol, riskFree),
	}, nil
}
