package strategy

import (
	"time"

	"TalmudBacktest/internal/calculator"
	"TalmudBacktest/internal/model"
)

// Align restricts the three bucket series to [start, end], inner-joins their
// dates and converts each to simple daily returns. The benchmark column of the
// table mirrors the stocks column.
func Align(re, stk, cash model.PriceSeries, start, end time.Time) (*model.AlignedTable, error) {
	dates, prices, err := join([]model.PriceSeries{re, stk, cash}, start, end)
	if err != nil {
		return nil, err
	}
	t := &model.AlignedTable{
		Dates:   dates,
		RetRE:   calculator.SimpleReturns(prices[0]),
		RetSTK:  calculator.SimpleReturns(prices[1]),
		RetCash: calculator.SimpleReturns(prices[2]),
	}
	t.RetBench = append([]float64(nil), t.RetSTK...)
	return t, nil
}

// AlignWithBenchmark is Align with a fourth, independent benchmark series that
// also takes part in the date intersection.
func AlignWithBenchmark(re, stk, cash, bench model.PriceSeries, start, end time.Time) (*model.AlignedTable, error) {
	dates, prices, err := join([]model.PriceSeries{re, stk, cash, bench}, start, end)
	if err != nil {
		return nil, err
	}
	return &model.AlignedTable{
		Dates:    dates,
		RetRE:    calculator.SimpleReturns(prices[0]),
		RetSTK:   calculator.SimpleReturns(prices[1]),
		RetCash:  calculator.SimpleReturns(prices[2]),
		RetBench: calculator.SimpleReturns(prices[3]),
	}, nil
}

// join clips every series to the window and keeps only dates present in all of
// them, in ascending order. prices[k] holds series k's prices on those dates.
func join(series []model.PriceSeries, start, end time.Time) ([]time.Time, [][]float64, error) {
	clipped := make([]model.PriceSeries, len(series))
	var missing []string
	for i, s := range series {
		clipped[i] = s.Clip(start, end)
		if clipped[i].Empty() {
			missing = append(missing, s.Symbol)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &InsufficientDataError{Symbols: missing, Reason: "no prices in requested window"}
	}

	// Every series is date-ordered, so walk them in lockstep: advance whichever
	// cursor is behind the current maximum until all agree.
	cursors := make([]int, len(clipped))
	var dates []time.Time
	prices := make([][]float64, len(clipped))
walk:
	for {
		var latest time.Time
		for i, s := range clipped {
			if cursors[i] >= s.Len() {
				break walk
			}
			if d := s.Points[cursors[i]].Date; d.After(latest) {
				latest = d
			}
		}
		matched := true
		for i, s := range clipped {
			for cursors[i] < s.Len() && s.Points[cursors[i]].Date.Before(latest) {
				cursors[i]++
			}
			if cursors[i] >= s.Len() {
				break walk
			}
			if !s.Points[cursors[i]].Date.Equal(latest) {
				matched = false
			}
		}
		if !matched {
			continue
		}
		dates = append(dates, latest)
		for i, s := range clipped {
			prices[i] = append(prices[i], s.Points[cursors[i]].Price)
			cursors[i]++
		}
	}
	if len(dates) == 0 {
		return nil, nil, &InsufficientDataError{Reason: "price series share no common dates"}
	}
	return dates, prices, nil
}
