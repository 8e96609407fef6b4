package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TalmudBacktest/internal/calculator"
	"TalmudBacktest/internal/model"
)

const third = 1.0 / 3

func TestShouldRebalance(t *testing.T) {
	tests := []struct {
		policy    model.Policy
		prev, cur time.Time
		want      bool
	}{
		{model.Yearly, day(2020, 12, 31), day(2021, 1, 4), true},
		{model.Yearly, day(2021, 3, 31), day(2021, 4, 1), false},
		{model.Quarterly, day(2021, 3, 31), day(2021, 4, 1), true},
		{model.Quarterly, day(2021, 4, 1), day(2021, 6, 30), false},
		{model.Quarterly, day(2021, 6, 30), day(2021, 7, 1), true},
		{model.Quarterly, day(2020, 12, 31), day(2021, 1, 4), true},
		{model.BuyAndHold, day(2020, 12, 31), day(2021, 1, 4), false},
	}
	for _, tt := range tests {
		got := ShouldRebalance(tt.policy, tt.prev, tt.cur)
		if got != tt.want {
			t.Errorf("%s %s->%s: expected %v, got %v", tt.policy,
				tt.prev.Format("2006-01-02"), tt.cur.Format("2006-01-02"), tt.want, got)
		}
	}
}

func TestSimulate_FirstDay(t *testing.T) {
	table := &model.AlignedTable{
		Dates:   []time.Time{day(2020, 1, 2)},
		RetRE:   []float64{0},
		RetSTK:  []float64{0},
		RetCash: []float64{0},
	}
	sim, err := Simulate(table, 900, model.Yearly)
	require.NoError(t, err)
	require.Len(t, sim.Curve, 1)
	p := sim.Curve[0]
	assert.InDelta(t, 900, p.TotalEquity, 1e-9)
	assert.InDelta(t, third, p.WeightRE, 1e-12)
	assert.InDelta(t, third, p.WeightSTK, 1e-12)
	assert.InDelta(t, third, p.WeightCash, 1e-12)
	assert.False(t, p.Rebalanced)
	assert.Empty(t, sim.Rebalances)
}

func TestSimulate_RebalanceOrdering(t *testing.T) {
	// Day 2 crosses a year: growth applies first, the reported total is the
	// grown total and the weights are reset to thirds of it.
	table := &model.AlignedTable{
		Dates:   []time.Time{day(2020, 12, 30), day(2020, 12, 31), day(2021, 1, 4), day(2021, 1, 5)},
		RetRE:   []float64{0, 0.10, -0.10, 0},
		RetSTK:  []float64{0, 0.20, 0.50, 0.10},
		RetCash: []float64{0, 0, 0, 0},
	}
	sim, err := Simulate(table, 300, model.Yearly)
	require.NoError(t, err)
	require.Len(t, sim.Curve, 4)

	// day 1: 110 + 120 + 100
	assert.InDelta(t, 330, sim.Curve[1].TotalEquity, 1e-9)
	assert.InDelta(t, 110.0/330, sim.Curve[1].WeightRE, 1e-12)

	// day 2: 99 + 180 + 100 = 379, then reset
	p := sim.Curve[2]
	assert.True(t, p.Rebalanced)
	assert.InDelta(t, 379, p.TotalEquity, 1e-9)
	assert.InDelta(t, third, p.WeightRE, 1e-12)
	assert.InDelta(t, third, p.WeightSTK, 1e-12)
	assert.InDelta(t, third, p.WeightCash, 1e-12)
	assert.Equal(t, []time.Time{day(2021, 1, 4)}, sim.Rebalances)

	// day 3 grows from the reset buckets
	assert.InDelta(t, 379+379.0/3*0.10, sim.Curve[3].TotalEquity, 1e-9)
}

func TestSimulate_WealthConservedOnRebalance(t *testing.T) {
	h := model.Holdings{RE: 123.456, STK: 789.01, Cash: 5.5}
	total := h.Total()
	after := h.Rebalanced(total)
	assert.InDelta(t, total, after.Total(), 1e-9)
	w := after.Weights(total)
	assert.InDelta(t, 1.0, w.RE+w.STK+w.Cash, 1e-12)
}

func TestSimulate_BuyAndHoldDrifts(t *testing.T) {
	dates := weekdays(day(2019, 11, 1), 200)
	re := linearSeries("RE", dates, 100, 80, 0, 0)
	stk := linearSeries("STK", dates, 100, 140, 0, 0)
	cash := linearSeries("CASH", dates, 100, 101, 0, 0)
	table, err := Align(re, stk, cash, time.Time{}, time.Time{})
	require.NoError(t, err)

	sim, err := Simulate(table, 1_000_000, model.BuyAndHold)
	require.NoError(t, err)
	assert.Empty(t, sim.Rebalances)
	for i := 1; i < len(sim.Curve); i++ {
		p := sim.Curve[i]
		assert.False(t, p.Rebalanced)
		// equities outperform every day, so their weight only grows
		assert.Greater(t, p.WeightSTK, sim.Curve[i-1].WeightSTK)
		assert.Less(t, p.WeightRE, sim.Curve[i-1].WeightRE)
	}
	// buy and hold equals the sum of three independently held thirds
	last := sim.Curve[len(sim.Curve)-1].TotalEquity
	assert.InDelta(t, 1_000_000.0/3*(0.8+1.4+1.01), last, 1e-3)
}

func TestSimulate_QuarterlyCount(t *testing.T) {
	dates := weekdays(day(2021, 1, 4), 260)
	re := linearSeries("RE", dates, 100, 120, 3, 5)
	stk := linearSeries("STK", dates, 100, 130, 5, 7)
	cash := linearSeries("CASH", dates, 100, 100.5, 0, 0)
	table, err := Align(re, stk, cash, time.Time{}, time.Time{})
	require.NoError(t, err)

	sim, err := Simulate(table, 1000, model.Quarterly)
	require.NoError(t, err)
	// 2021-01-04 .. 2021-12-31 crosses Apr, Jul and Oct
	assert.Len(t, sim.Rebalances, 3)
	for _, p := range sim.Curve {
		if p.Rebalanced {
			assert.InDelta(t, third, p.WeightRE, 1e-12)
			assert.InDelta(t, third, p.WeightSTK, 1e-12)
			assert.InDelta(t, third, p.WeightCash, 1e-12)
		}
	}
}

func TestSimulate_Divergent(t *testing.T) {
	table := &model.AlignedTable{
		Dates:   []time.Time{day(2020, 1, 2), day(2020, 1, 3)},
		RetRE:   []float64{0, -1},
		RetSTK:  []float64{0, -1},
		RetCash: []float64{0, -1},
	}
	_, err := Simulate(table, 1000, model.Yearly)
	require.ErrorIs(t, err, ErrDivergentPortfolio)
	var de *DivergentPortfolioError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, day(2020, 1, 3), de.Date)
	assert.Equal(t, 0.0, de.Equity)
}

func TestSimulate_InvalidInput(t *testing.T) {
	table := &model.AlignedTable{
		Dates: []time.Time{day(2020, 1, 2)}, RetRE: []float64{0}, RetSTK: []float64{0}, RetCash: []float64{0},
	}
	_, err := Simulate(nil, 1000, model.Yearly)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = Simulate(table, 0, model.Yearly)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = Simulate(table, math.NaN(), model.Yearly)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = Simulate(table, 1000, model.Policy(9))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// Three synthetic assets over 500 trading days crossing two year boundaries.
func TestSimulate_EndToEndScenario(t *testing.T) {
	const capital = 1_000_000.0
	dates := weekdays(day(2019, 6, 3), 500)
	re := linearSeries("RE", dates, 100, 90, 0, 0)
	stk := linearSeries("STK", dates, 100, 150, 8, 4)
	cash := linearSeries("CASH", dates, 100, 102, 0, 0)

	table, err := Align(re, stk, cash, dates[0], dates[len(dates)-1])
	require.NoError(t, err)
	require.Equal(t, 500, table.Len())

	sim, err := Simulate(table, capital, model.Yearly)
	require.NoError(t, err)

	require.Equal(t, []time.Time{day(2020, 1, 1), day(2021, 1, 1)}, sim.Rebalances)
	for _, p := range sim.Curve {
		if p.Rebalanced {
			assert.InDelta(t, third, p.WeightRE, 1e-12)
			assert.InDelta(t, third, p.WeightSTK, 1e-12)
			assert.InDelta(t, third, p.WeightCash, 1e-12)
		}
	}

	final := sim.Curve[len(sim.Curve)-1].TotalEquity
	assert.Greater(t, final, capital*0.90)
	assert.Less(t, final, capital*1.50)

	bench := calculator.BenchmarkCurve(table.RetBench, capital)
	assert.InDelta(t, capital*1.5, bench[len(bench)-1], 1e-3)

	strat, err := calculator.Compute(sim.Dates(), sim.Equity(), calculator.DefaultRiskFreeRate)
	require.NoError(t, err)
	bm, err := calculator.Compute(table.Dates, bench, calculator.DefaultRiskFreeRate)
	require.NoError(t, err)
	assert.LessOrEqual(t, math.Abs(strat.MaxDrawdown), math.Abs(bm.MaxDrawdown))
	assert.Less(t, bm.MaxDrawdown, 0.0)
}

func TestSimulate_Deterministic(t *testing.T) {
	dates := weekdays(day(2018, 2, 1), 400)
	re := linearSeries("RE", dates, 50, 70, 4, 3)
	stk := linearSeries("STK", dates, 300, 250, 20, 6)
	cash := linearSeries("CASH", dates, 10, 10.4, 0, 0)

	run := func() *Simulation {
		table, err := Align(re, stk, cash, time.Time{}, time.Time{})
		require.NoError(t, err)
		sim, err := Simulate(table, 12345.67, model.Quarterly)
		require.NoError(t, err)
		return sim
	}
	assert.Equal(t, run(), run())
}
