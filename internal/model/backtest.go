package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AlignedTable is the inner-joined daily return table of the three buckets.
// All return slices share the Dates index; the first row is always 0.
type AlignedTable struct {
	Dates    []time.Time
	RetRE    []float64
	RetSTK   []float64
	RetCash  []float64
	RetBench []float64 // equals RetSTK unless a separate benchmark was joined
}

// Len returns the number of aligned dates.
func (t *AlignedTable) Len() int { return len(t.Dates) }

// EquityPoint is one day of the strategy curve: total equity before any
// same-day rebalance and the bucket weights after it.
type EquityPoint struct {
	Date        time.Time `json:"date"`
	TotalEquity float64   `json:"total_equity"`
	WeightRE    float64   `json:"weight_re"`
	WeightSTK   float64   `json:"weight_stk"`
	WeightCash  float64   `json:"weight_cash"`
	Rebalanced  bool      `json:"rebalanced,omitempty"`
}

// BenchmarkPoint is one day of the buy-and-hold comparator curve.
type BenchmarkPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// Metrics summarises one equity curve.
type Metrics struct {
	TotalReturn float64 `json:"total_return"`
	CAGR        float64 `json:"cagr"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Volatility  float64 `json:"volatility"`
	Sharpe      float64 `json:"sharpe"`
}

// Request describes one backtest run.
type Request struct {
	RealEstate     string    `json:"real_estate"`
	Stocks         string    `json:"stocks"`
	Cash           string    `json:"cash"`
	Benchmark      string    `json:"benchmark,omitempty"` // empty means the stocks bucket
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	InitialCapital float64   `json:"initial_capital"`
	Policy         Policy    `json:"policy"`
}

// BenchmarkSymbol returns the symbol used for the comparator curve.
func (r Request) BenchmarkSymbol() string {
	if r.Benchmark == "" {
		return r.Stocks
	}
	return r.Benchmark
}

// Symbols lists the distinct symbols the request needs, buckets first.
func (r Request) Symbols() []string {
	out := []string{r.RealEstate, r.Stocks, r.Cash}
	if r.Benchmark != "" && r.Benchmark != r.Stocks {
		out = append(out, r.Benchmark)
	}
	return out
}

// Key is a deterministic identifier of the request, used as cache key.
func (r Request) Key() string {
	return fmt.Sprintf("talmud:%s|%s|%s|%s|%s|%s|%s|%s",
		strings.ToUpper(r.RealEstate), strings.ToUpper(r.Stocks), strings.ToUpper(r.Cash),
		strings.ToUpper(r.BenchmarkSymbol()),
		r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"),
		strconv.FormatFloat(r.InitialCapital, 'g', -1, 64), r.Policy)
}

// Result is the full output of one backtest run.
type Result struct {
	ID               string           `json:"id"`
	Request          Request          `json:"request"`
	Curve            []EquityPoint    `json:"curve"`
	Benchmark        []BenchmarkPoint `json:"benchmark"`
	Rebalances       []time.Time      `json:"rebalances"`
	Strategy         Metrics          `json:"strategy"`
	BenchmarkMetrics Metrics          `json:"benchmark_metrics"`
	CreatedAt        time.Time        `json:"created_at"`
}

// FinalEquity returns the last strategy equity, or 0 for an empty curve.
func (r *Result) FinalEquity() float64 {
	if len(r.Curve) == 0 {
		return 0
	}
	return r.Curve[len(r.Curve)-1].TotalEquity
}

// FinalBenchmark returns the last benchmark equity, or 0 for an empty curve.
func (r *Result) FinalBenchmark() float64 {
	if len(r.Benchmark) == 0 {
		return 0
	}
	return r.Benchmark[len(r.Benchmark)-1].Equity
}
