package calculator

import "time"

// SimpleReturns computes day-over-day simple returns, Price[i]/Price[i-1] - 1.
// The first element is 0 because it has no prior observation.
func SimpleReturns(prices []float64) []float64 {
	rets := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		rets[i] = prices[i]/prices[i-1] - 1
	}
	return rets
}

// DailyReturns is SimpleReturns applied to an equity curve.
func DailyReturns(values []float64) []float64 {
	return SimpleReturns(values)
}

// BenchmarkCurve compounds capital by each daily return: capital * cumprod(1 + ret).
// The first return is expected to be 0, so the curve starts at capital.
func BenchmarkCurve(rets []float64, capital float64) []float64 {
	curve := make([]float64, len(rets))
	acc := 1.0
	for i, r := range rets {
		acc *= 1 + r
		curve[i] = capital * acc
	}
	return curve
}

// YearsBetween returns the elapsed calendar days between two dates divided by 365.25.
func YearsBetween(first, last time.Time) float64 {
	days := float64(last.Sub(first) / (24 * time.Hour))
	return days / DaysPerYear
}
