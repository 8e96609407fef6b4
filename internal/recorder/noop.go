package recorder

import (
	"context"

	"TalmudBacktest/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(context.Context, *model.Result) error { return nil }
func (n *NoopRecorder) ListRuns(context.Context, int) ([]RunSummary, error) { return nil, nil }
func (n *NoopRecorder) Close() error { return nil }
