package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"TalmudBacktest/internal/cache"
	"TalmudBacktest/internal/calculator"
	"TalmudBacktest/internal/collector"
	"TalmudBacktest/internal/model"
	"TalmudBacktest/internal/monitoring"
	"TalmudBacktest/internal/recorder"
	"TalmudBacktest/internal/strategy"
)

// DefaultRangeStart is the start of the fallback window used when the
// common range of a set of symbols cannot be determined.
var DefaultRangeStart = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

// SuggestedYears is the default lookback offered for a new run.
const SuggestedYears = 5

// Runner wires a price source to the strategy engine. Cache, Recorder and
// Metrics are optional.
type Runner struct {
	Source       collector.PriceSource
	Cache        cache.ResultCache
	Recorder     recorder.Recorder
	Metrics      *monitoring.Metrics
	RiskFreeRate float64
	CacheTTL     time.Duration

	now   func() time.Time
	newID func() string
}

// NewRunner creates a runner with the default risk-free rate and no cache or recorder.
func NewRunner(source collector.PriceSource) *Runner {
	return &Runner{
		Source:       source,
		RiskFreeRate: calculator.DefaultRiskFreeRate,
		CacheTTL:     time.Hour,
	}
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Runner) runID() string {
	if r.newID != nil {
		return r.newID()
	}
	return uuid.NewString()
}

// DefaultRange is the fallback window [2015-01-01, today].
func (r *Runner) DefaultRange() (time.Time, time.Time) {
	return DefaultRangeStart, model.Day(r.clock())
}

// CommonDateRange returns the span covered by every symbol: the latest first
// date and the earliest last date. If any series is empty or fails to load,
// or the spans don't overlap, the default range is returned.
func (r *Runner) CommonDateRange(ctx context.Context, symbols ...string) (time.Time, time.Time) {
	var start, end time.Time
	for _, sym := range symbols {
		s, err := r.Source.LoadPriceSeries(ctx, sym)
		if err != nil {
			log.WithError(err).WithField("symbol", sym).Warn("common range: load failed, using default range")
			return r.DefaultRange()
		}
		if s.Empty() {
			log.WithField("symbol", sym).Debug("common range: no data, using default range")
			return r.DefaultRange()
		}
		if first := s.First().Date; start.IsZero() || first.After(start) {
			start = first
		}
		if last := s.Last().Date; end.IsZero() || last.Before(end) {
			end = last
		}
	}
	if start.IsZero() || start.After(end) {
		return r.DefaultRange()
	}
	return start, end
}

// SuggestedStart is the later of start and five years before end.
func SuggestedStart(start, end time.Time) time.Time {
	return LookbackStart(start, end, SuggestedYears)
}

// LookbackStart is the later of start and the given number of years before
// end. A non-positive years keeps start.
func LookbackStart(start, end time.Time, years int) time.Time {
	if years <= 0 {
		return start
	}
	s := end.AddDate(-years, 0, 0)
	if s.Before(start) {
		return start
	}
	return s
}

// Window returns the common range of the symbols narrowed to the last
// years years.
func (r *Runner) Window(ctx context.Context, years int, symbols ...string) (time.Time, time.Time) {
	start, end := r.CommonDateRange(ctx, symbols...)
	return LookbackStart(start, end, years), end
}

func validate(req model.Request) error {
	var missing []string
	for _, b := range []struct{ name, sym string }{
		{"real estate", req.RealEstate}, {"stocks", req.Stocks}, {"cash", req.Cash},
	} {
		if b.sym == "" {
			missing = append(missing, b.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing symbol for %s", strategy.ErrInvalidInput, strings.Join(missing, ", "))
	}
	if !(req.InitialCapital > 0) || math.IsInf(req.InitialCapital, 0) {
		return fmt.Errorf("%w: initial capital must be positive, got %g", strategy.ErrInvalidInput, req.InitialCapital)
	}
	if !req.Policy.Valid() {
		return fmt.Errorf("%w: unknown policy %d", strategy.ErrInvalidInput, int(req.Policy))
	}
	if !req.Start.IsZero() && !req.End.IsZero() && req.Start.After(req.End) {
		return fmt.Errorf("%w: start %s is after end %s", strategy.ErrInvalidInput,
			req.Start.Format("2006-01-02"), req.End.Format("2006-01-02"))
	}
	return nil
}

func normalizeRequest(req model.Request) model.Request {
	req.RealEstate = strings.TrimSpace(req.RealEstate)
	req.Stocks = strings.TrimSpace(req.Stocks)
	req.Cash = strings.TrimSpace(req.Cash)
	req.Benchmark = strings.TrimSpace(req.Benchmark)
	if strings.EqualFold(req.Benchmark, req.Stocks) {
		req.Benchmark = ""
	}
	if !req.Start.IsZero() {
		req.Start = model.Day(req.Start)
	}
	if !req.End.IsZero() {
		req.End = model.Day(req.End)
	}
	return req
}

// Run executes one backtest: load, align, simulate and measure. Identical
// requests yield identical curves and metrics; a cached result is returned
// as is, including its original ID.
func (r *Runner) Run(ctx context.Context, req model.Request) (res *model.Result, err error) {
	started := time.Now()
	req = normalizeRequest(req)
	defer func() {
		r.Metrics.RecordBacktest(req.Policy.String(), runStatus(err), time.Since(started))
	}()

	if err := validate(req); err != nil {
		return nil, err
	}

	key := req.Key()
	if r.Cache != nil {
		cached, ok, cerr := r.Cache.Get(ctx, key)
		if cerr != nil {
			log.WithError(cerr).Warn("result cache lookup failed")
		}
		r.Metrics.RecordCacheLookup(ok)
		if ok {
			log.WithFields(log.Fields{"key": key, "id": cached.ID}).Debug("backtest served from cache")
			return cached, nil
		}
	}

	series, err := r.load(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var table *model.AlignedTable
	if req.Benchmark != "" {
		table, err = strategy.AlignWithBenchmark(series[0], series[1], series[2], series[3], req.Start, req.End)
	} else {
		table, err = strategy.Align(series[0], series[1], series[2], req.Start, req.End)
	}
	if err != nil {
		return nil, err
	}

	sim, err := strategy.Simulate(table, req.InitialCapital, req.Policy)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	benchCurve := calculator.BenchmarkCurve(table.RetBench, req.InitialCapital)
	stratMetrics, err := calculator.Compute(table.Dates, sim.Equity(), r.RiskFreeRate)
	if err != nil {
		return nil, fmt.Errorf("strategy metrics: %w", err)
	}
	benchMetrics, err := calculator.Compute(table.Dates, benchCurve, r.RiskFreeRate)
	if err != nil {
		return nil, fmt.Errorf("benchmark metrics: %w", err)
	}

	res = &model.Result{
		ID:               r.runID(),
		Request:          req,
		Curve:            sim.Curve,
		Benchmark:        make([]model.BenchmarkPoint, len(benchCurve)),
		Rebalances:       sim.Rebalances,
		Strategy:         stratMetrics,
		BenchmarkMetrics: benchMetrics,
		CreatedAt:        r.clock().UTC(),
	}
	for i, v := range benchCurve {
		res.Benchmark[i] = model.BenchmarkPoint{Date: table.Dates[i], Equity: v}
	}

	if r.Cache != nil {
		if err := r.Cache.Put(ctx, key, res, r.CacheTTL); err != nil {
			log.WithError(err).Warn("result cache store failed")
		}
	}
	if r.Recorder != nil {
		if err := r.Recorder.RecordRun(ctx, res); err != nil {
			log.WithError(err).WithField("id", res.ID).Warn("recording run failed")
		}
	}

	log.WithFields(log.Fields{
		"id":         res.ID,
		"policy":     req.Policy.String(),
		"days":       len(res.Curve),
		"rebalances": len(res.Rebalances),
		"final":      res.FinalEquity(),
	}).Info("backtest finished")
	return res, nil
}

// load fetches the request's series in Symbols() order. Every symbol without
// data is reported together.
func (r *Runner) load(ctx context.Context, req model.Request) ([]model.PriceSeries, error) {
	symbols := req.Symbols()
	out := make([]model.PriceSeries, len(symbols))
	var missing []string
	for i, sym := range symbols {
		s, err := r.Source.LoadPriceSeries(ctx, sym)
		if err != nil {
			return nil, fmt.Errorf("load %s from %s: %w", sym, r.Source.Name(), err)
		}
		if s.Empty() {
			missing = append(missing, sym)
		}
		s.Symbol = sym
		out[i] = s
	}
	if len(missing) > 0 {
		return nil, &strategy.InsufficientDataError{Symbols: missing, Reason: "no price data"}
	}
	return out, nil
}

func runStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, strategy.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, strategy.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, strategy.ErrDivergentPortfolio):
		return "divergent"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
