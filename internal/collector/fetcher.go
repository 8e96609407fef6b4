package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"TalmudBacktest/internal/config"
	"TalmudBacktest/internal/model"
)

// PriceSource loads the full daily price history of a symbol.
//
// An unknown symbol, or one without a usable price column, yields an empty
// series and a nil error. Errors are reserved for I/O and decoding failures.
type PriceSource interface {
	LoadPriceSeries(ctx context.Context, symbol string) (model.PriceSeries, error)
	Name() string
}

// FromConfig builds the price source selected by cfg.DataSource.Kind.
func FromConfig(cfg *config.Config) (PriceSource, error) {
	ds := cfg.DataSource
	switch ds.Kind {
	case "csv":
		return NewCSVSource(ds.Dir), nil
	case "yahoo":
		return NewYahooSource(cfg.Proxy), nil
	case "rest":
		return NewRESTSource(ds.BaseURL, ds.APIKey, cfg.Proxy), nil
	case "mock":
		return NewDemoSource(), nil
	default:
		return nil, fmt.Errorf("unknown data source kind %q", ds.Kind)
	}
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// normalize sorts points by date and keeps the last observation of each day.
func normalize(symbol string, pts []model.PricePoint) model.PriceSeries {
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	out := model.PriceSeries{Symbol: symbol}
	for _, p := range pts {
		if n := len(out.Points); n > 0 && out.Points[n-1].Date.Equal(p.Date) {
			out.Points[n-1] = p
			continue
		}
		out.Points = append(out.Points, p)
	}
	return out
}
