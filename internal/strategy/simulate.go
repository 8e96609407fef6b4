package strategy

import (
	"fmt"
	"math"
	"time"

	"TalmudBacktest/internal/model"
)

// Simulation is the day-by-day output of one run. Curve carries both the
// equity curve and the weight series.
type Simulation struct {
	Curve      []model.EquityPoint
	Rebalances []time.Time
}

// Equity returns the total equity column of the curve.
func (s *Simulation) Equity() []float64 {
	out := make([]float64, len(s.Curve))
	for i, p := range s.Curve {
		out[i] = p.TotalEquity
	}
	return out
}

// Dates returns the date column of the curve.
func (s *Simulation) Dates() []time.Time {
	out := make([]time.Time, len(s.Curve))
	for i, p := range s.Curve {
		out[i] = p.Date
	}
	return out
}

// ShouldRebalance reports whether moving from prev to cur crosses a boundary
// of the policy's period.
func ShouldRebalance(policy model.Policy, prev, cur time.Time) bool {
	switch policy {
	case model.Yearly:
		return cur.Year() != prev.Year()
	case model.Quarterly:
		return model.Quarter(cur) != model.Quarter(prev)
	default:
		return false
	}
}

// Simulate walks the aligned table from its first date, growing each bucket by
// its daily return and resetting the buckets to equal thirds whenever the
// policy's period changes. The emitted total is the post-growth, pre-rebalance
// equity; weights are the post-rebalance buckets over that same total.
//
// A total equity that is not strictly positive aborts the run with a
// *DivergentPortfolioError rather than emitting undefined weights.
func Simulate(table *model.AlignedTable, initialCapital float64, policy model.Policy) (*Simulation, error) {
	if table == nil || table.Len() == 0 {
		return nil, fmt.Errorf("%w: empty aligned table", ErrInvalidInput)
	}
	n := table.Len()
	if len(table.RetRE) != n || len(table.RetSTK) != n || len(table.RetCash) != n {
		return nil, fmt.Errorf("%w: return columns do not match %d dates", ErrInvalidInput, n)
	}
	if !(initialCapital > 0) || math.IsInf(initialCapital, 0) {
		return nil, fmt.Errorf("%w: initial capital must be positive, got %g", ErrInvalidInput, initialCapital)
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("%w: unknown policy %d", ErrInvalidInput, int(policy))
	}

	sim := &Simulation{Curve: make([]model.EquityPoint, 0, n)}
	holdings := model.EqualThirds(initialCapital)

	for i, date := range table.Dates {
		if i > 0 {
			holdings = holdings.Grow(table.RetRE[i], table.RetSTK[i], table.RetCash[i])
		}

		total := holdings.Total()
		if !(total > 0) || math.IsInf(total, 0) {
			return nil, &DivergentPortfolioError{Date: date, Equity: total}
		}

		rebalanced := i > 0 && ShouldRebalance(policy, table.Dates[i-1], date)
		if rebalanced {
			holdings = holdings.Rebalanced(total)
			sim.Rebalances = append(sim.Rebalances, date)
		}

		w := holdings.Weights(total)
		sim.Curve = append(sim.Curve, model.EquityPoint{
			Date:        date,
			TotalEquity: total,
			WeightRE:    w.RE,
			WeightSTK:   w.STK,
			WeightCash:  w.Cash,
			Rebalanced:  rebalanced,
		})
	}
	return sim, nil
}
