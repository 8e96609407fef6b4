package recorder

import (
	"context"
	"time"

	"TalmudBacktest/internal/model"
)

// RunSummary is one row of the run history.
type RunSummary struct {
	ID             string        `json:"id"`
	CreatedAt      time.Time     `json:"created_at"`
	Request        model.Request `json:"request"`
	FinalEquity    float64       `json:"final_equity"`
	FinalBenchmark float64       `json:"final_benchmark"`
	Rebalances     int           `json:"rebalances"`
	Strategy       model.Metrics `json:"strategy"`
	Benchmark      model.Metrics `json:"benchmark"`
}

// Recorder persists finished backtest runs for later analysis.
type Recorder interface {
	RecordRun(ctx context.Context, res *model.Result) error
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	Close() error
}
