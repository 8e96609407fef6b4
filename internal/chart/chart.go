package chart

import (
	"fmt"

	"github.com/vicanso/go-charts/v2"

	"TalmudBacktest/internal/model"
)

// EquityPNG renders the strategy and benchmark equity curves.
func EquityPNG(res *model.Result) ([]byte, error) {
	if res == nil || len(res.Curve) == 0 {
		return nil, fmt.Errorf("no equity curve to chart")
	}
	if img, ok := images.get(cacheKey(res, "equity")); ok {
		return img, nil
	}

	strat := make([]float64, len(res.Curve))
	for i, p := range res.Curve {
		strat[i] = p.TotalEquity
	}
	bench := make([]float64, len(res.Benchmark))
	for i, p := range res.Benchmark {
		bench[i] = p.Equity
	}
	values := [][]float64{strat}
	names := []string{"Talmud"}
	if len(bench) == len(strat) {
		values = append(values, bench)
		names = append(names, "Benchmark "+res.Request.BenchmarkSymbol())
	}

	yMin, yMax := bounds(values)
	title := fmt.Sprintf("Talmud %s / %s / %s", res.Request.RealEstate, res.Request.Stocks, res.Request.Cash)
	subtitle := fmt.Sprintf("%s rebalance | CAGR %.2f%% | MaxDD %.2f%% | Sharpe %.2f",
		res.Request.Policy, res.Strategy.CAGR*100, res.Strategy.MaxDrawdown*100, res.Strategy.Sharpe)

	p, err := charts.Render(charts.ChartOption{SeriesList: charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)},
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels(res.Curve),
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: splitNumber(len(strat)),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("render equity chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode equity chart: %w", err)
	}
	images.put(cacheKey(res, "equity"), buf)
	return buf, nil
}

// WeightsPNG renders the three bucket weights, in percent.
func WeightsPNG(res *model.Result) ([]byte, error) {
	if res == nil || len(res.Curve) == 0 {
		return nil, fmt.Errorf("no weights to chart")
	}
	if img, ok := images.get(cacheKey(res, "weights")); ok {
		return img, nil
	}

	values := make([][]float64, 3)
	for i := range values {
		values[i] = make([]float64, len(res.Curve))
	}
	for i, p := range res.Curve {
		values[0][i] = p.WeightRE * 100
		values[1][i] = p.WeightSTK * 100
		values[2][i] = p.WeightCash * 100
	}
	names := []string{
		"Real estate " + res.Request.RealEstate,
		"Stocks " + res.Request.Stocks,
		"Cash " + res.Request.Cash,
	}

	yMin, yMax := 0.0, 100.0
	for _, s := range values {
		for _, v := range s {
			if v > yMax {
				yMax = v
			}
		}
	}

	p, err := charts.Render(charts.ChartOption{SeriesList: charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)},
		charts.TitleTextOptionFunc("Bucket weights (%)", fmt.Sprintf("%s rebalance, %d resets", res.Request.Policy, len(res.Rebalances))),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels(res.Curve),
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: splitNumber(len(res.Curve)),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("render weights chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode weights chart: %w", err)
	}
	images.put(cacheKey(res, "weights"), buf)
	return buf, nil
}

// cacheKey is empty for results without an ID, which are never cached.
func cacheKey(res *model.Result, kind string) string {
	if res.ID == "" {
		return ""
	}
	return res.ID + ":" + kind
}

func labels(curve []model.EquityPoint) []string {
	layout := "Jan '06"
	if len(curve) <= 60 {
		layout = "Jan 02"
	}
	out := make([]string, len(curve))
	for i, p := range curve {
		out[i] = p.Date.Format(layout)
	}
	return out
}

func splitNumber(n int) int {
	if n > 30 {
		return 6
	}
	if s := n / 3; s >= 3 {
		return s
	}
	return 3
}

// bounds returns the y-axis range of all series with 5% padding.
func bounds(values [][]float64) (float64, float64) {
	lo, hi := values[0][0], values[0][0]
	for _, s := range values {
		for _, v := range s {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = hi * 0.05
	}
	return lo - pad, hi + pad
}
