package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TalmudBacktest/internal/config"
	"TalmudBacktest/internal/model"
)

func sampleResult() *model.Result {
	d := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	return &model.Result{
		ID:      "run-1",
		Request: model.Request{RealEstate: "VNQ", Stocks: "SPY", Cash: "BIL", InitialCapital: 1000, Policy: model.Quarterly},
		Curve: []model.EquityPoint{
			{Date: d, TotalEquity: 1000, WeightRE: 1.0 / 3, WeightSTK: 1.0 / 3, WeightCash: 1.0 / 3},
			{Date: d.AddDate(0, 0, 1), TotalEquity: 1010, WeightRE: 0.3, WeightSTK: 0.4, WeightCash: 0.3, Rebalanced: true},
		},
		Benchmark:  []model.BenchmarkPoint{{Date: d, Equity: 1000}, {Date: d.AddDate(0, 0, 1), Equity: 1020}},
		Rebalances: []time.Time{d.AddDate(0, 0, 1)},
		Strategy:   model.Metrics{TotalReturn: 0.01, MaxDrawdown: 0},
		CreatedAt:  d,
	}
}

func TestMemoryCache_GetPut(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "k", sampleResult(), time.Minute))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleResult(), got)

	byID, ok, err := c.GetByID(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, got, byID)
	assert.Equal(t, 2, c.Len())
}

func TestMemoryCache_CopiesEntries(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	res := sampleResult()
	require.NoError(t, c.Put(ctx, "k", res, 0))

	res.Curve[0].TotalEquity = -1
	got, _, _ := c.Get(ctx, "k")
	assert.Equal(t, 1000.0, got.Curve[0].TotalEquity)

	got.Curve[1].TotalEquity = -1
	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, 1010.0, again.Curve[1].TotalEquity)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put(ctx, "k", sampleResult(), time.Minute))
	_, ok, _ := c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
	_, ok, _ = c.GetByID(ctx, "run-1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestResultCodecRoundTrip(t *testing.T) {
	data, err := encodeResult(sampleResult())
	require.NoError(t, err)
	res, err := decodeResult(data)
	require.NoError(t, err)
	assert.Equal(t, model.Quarterly, res.Request.Policy)
	assert.Equal(t, sampleResult().Curve, res.Curve)

	_, err = decodeResult([]byte("{"))
	assert.Error(t, err)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache(&RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Cache.Kind = "memory"
	c, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	cfg.Cache.Kind = "none"
	c, err = FromConfig(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Put(context.Background(), "k", sampleResult(), time.Minute))
	_, ok, _ := c.Get(context.Background(), "k")
	assert.False(t, ok)

	cfg.Cache.Kind = "disk"
	_, err = FromConfig(cfg)
	assert.Error(t, err)
}
