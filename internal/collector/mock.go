package collector

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"time"

	"TalmudBacktest/internal/model"
)

// MockSource serves fixed series from memory for development and testing.
type MockSource struct {
	mu     sync.Mutex
	series map[string]model.PriceSeries
	loads  int

	// Err, when set, is returned by every load.
	Err error
}

// NewMockSource creates a source serving the given series by symbol.
func NewMockSource(series ...model.PriceSeries) *MockSource {
	m := &MockSource{series: make(map[string]model.PriceSeries)}
	for _, s := range series {
		m.Set(s)
	}
	return m
}

// NewDemoSource serves a deterministic synthetic history for every symbol
// of the default asset menu.
func NewDemoSource() *MockSource {
	m := NewMockSource()
	menu := model.DefaultAssetMenu()
	start := time.Date(2012, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, group := range [][]model.Asset{menu.RealEstate, menu.Stocks, menu.Cash, menu.Benchmark} {
		for _, a := range group {
			h := fnv.New32a()
			h.Write([]byte(a.Symbol))
			seed := float64(h.Sum32()%1000) / 1000
			drift := 0.0001 + 0.0004*seed
			if strings.Contains(a.Symbol, "BIL") || a.Symbol == "SHV" || a.Symbol == "VGSH" || a.Symbol == "IEF" {
				drift = 0.00006
				seed = 0
			}
			m.Set(GeometricSeries(a.Symbol, start, 3500, 50+100*seed, drift, 0.15*seed))
		}
	}
	return m
}

func (m *MockSource) Name() string { return "mock" }

// Set adds or replaces the series for its symbol.
func (m *MockSource) Set(s model.PriceSeries) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[strings.ToUpper(s.Symbol)] = s
}

// Loads returns how many times LoadPriceSeries was called.
func (m *MockSource) Loads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

func (m *MockSource) LoadPriceSeries(ctx context.Context, symbol string) (model.PriceSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if err := ctx.Err(); err != nil {
		return model.PriceSeries{}, err
	}
	if m.Err != nil {
		return model.PriceSeries{}, m.Err
	}
	s, ok := m.series[strings.ToUpper(symbol)]
	if !ok {
		return model.PriceSeries{Symbol: symbol}, nil
	}
	out := model.PriceSeries{Symbol: symbol, Points: make([]model.PricePoint, len(s.Points))}
	copy(out.Points, s.Points)
	return out, nil
}

// GeometricSeries generates n weekday prices starting at start, compounding
// dailyDrift with a slow sinusoidal cycle of relative amplitude swing.
func GeometricSeries(symbol string, start time.Time, n int, startPrice, dailyDrift, swing float64) model.PriceSeries {
	s := model.PriceSeries{Symbol: symbol, Points: make([]model.PricePoint, 0, n)}
	d := model.Day(start)
	for i := 0; len(s.Points) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		cycle := 1 + swing*math.Sin(2*math.Pi*float64(i)/504)
		s.Points = append(s.Points, model.PricePoint{
			Date:  d,
			Price: startPrice * math.Exp(dailyDrift*float64(i)) * cycle,
		})
		i++
	}
	return s
}
