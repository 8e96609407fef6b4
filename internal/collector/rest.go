package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"TalmudBacktest/internal/model"
)

// RESTSource implements PriceSource against a JSON price API exposing
// GET {base}/api/v1/prices?symbol=X.
type RESTSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTSource creates a new source with optional proxy support.
func NewRESTSource(baseURL, apiKey, proxyURL string) *RESTSource {
	return &RESTSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (s *RESTSource) Name() string { return "rest" }

// restPrice is the expected JSON shape of one daily observation.
type restPrice struct {
	Date     string   `json:"date"`
	Close    *float64 `json:"close"`
	AdjClose *float64 `json:"adj_close"`
}

func (s *RESTSource) LoadPriceSeries(ctx context.Context, symbol string) (model.PriceSeries, error) {
	empty := model.PriceSeries{Symbol: symbol}
	if strings.TrimSpace(symbol) == "" {
		return empty, nil
	}

	endpoint := fmt.Sprintf("%s/api/v1/prices?symbol=%s", s.BaseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return empty, err
	}
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return empty, fmt.Errorf("fetch prices: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return empty, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return empty, fmt.Errorf("fetch prices: status %d, body: %s", resp.StatusCode, string(body))
	}

	var rows []restPrice
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return empty, fmt.Errorf("decode prices: %w", err)
	}

	pts := make([]model.PricePoint, 0, len(rows))
	for _, r := range rows {
		d, err := parseDate(r.Date)
		if err != nil {
			continue
		}
		p := r.AdjClose
		if p == nil {
			p = r.Close
		}
		if p == nil || !(*p > 0) {
			continue
		}
		pts = append(pts, model.PricePoint{Date: d, Price: *p})
	}
	return normalize(symbol, pts), nil
}
