package api

import (
	"fmt"
	"strings"
	"time"

	"TalmudBacktest/internal/model"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// BacktestRequest is the body of POST /api/v1/backtest. Dates are
// YYYY-MM-DD. When both are omitted the window is the last Years years of
// the common range of the symbols.
type BacktestRequest struct {
	RealEstate     string  `json:"real_estate" binding:"required"`
	Stocks         string  `json:"stocks" binding:"required"`
	Cash           string  `json:"cash" binding:"required"`
	Benchmark      string  `json:"benchmark"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	InitialCapital float64 `json:"initial_capital"`
	Policy         string  `json:"policy"`
	Years          int     `json:"years"`
}

// RangeResponse is the reply of GET /api/v1/range.
type RangeResponse struct {
	Symbols        []string `json:"symbols"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	SuggestedStart string   `json:"suggested_start"`
}

func parseDay(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: want YYYY-MM-DD, got %q", field, v)
	}
	return t, nil
}

func (r BacktestRequest) symbols() []string {
	out := []string{r.RealEstate, r.Stocks, r.Cash}
	if r.Benchmark != "" {
		out = append(out, r.Benchmark)
	}
	return out
}

// toModel converts the body into a run request, filling unset fields from
// the configured defaults.
func (r BacktestRequest) toModel(defaultCapital float64, defaultPolicy string) (model.Request, error) {
	req := model.Request{
		RealEstate:     strings.ToUpper(strings.TrimSpace(r.RealEstate)),
		Stocks:         strings.ToUpper(strings.TrimSpace(r.Stocks)),
		Cash:           strings.ToUpper(strings.TrimSpace(r.Cash)),
		Benchmark:      strings.ToUpper(strings.TrimSpace(r.Benchmark)),
		InitialCapital: r.InitialCapital,
	}
	if req.InitialCapital == 0 {
		req.InitialCapital = defaultCapital
	}

	policy := r.Policy
	if policy == "" {
		policy = defaultPolicy
	}
	p, err := model.ParsePolicy(policy)
	if err != nil {
		return req, err
	}
	req.Policy = p

	if req.Start, err = parseDay("start", r.Start); err != nil {
		return req, err
	}
	if req.End, err = parseDay("end", r.End); err != nil {
		return req, err
	}
	return req, nil
}
