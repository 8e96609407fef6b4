package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"TalmudBacktest/internal/model"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YahooSource implements PriceSource using the Yahoo Finance chart API.
type YahooSource struct {
	Client    *http.Client
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooSource creates a Yahoo Finance source with optional proxy support.
func NewYahooSource(proxyURL string) *YahooSource {
	return &YahooSource{
		Client:  newHTTPClient(proxyURL),
		BaseURL: yahooChartURL,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (s *YahooSource) Name() string { return "yahoo" }

func (s *YahooSource) yahooSymbol(symbol string) string {
	if mapped, ok := s.SymbolMap[strings.ToUpper(symbol)]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// LoadPriceSeries fetches the full daily history, preferring adjusted closes.
func (s *YahooSource) LoadPriceSeries(ctx context.Context, symbol string) (model.PriceSeries, error) {
	empty := model.PriceSeries{Symbol: symbol}
	if strings.TrimSpace(symbol) == "" {
		return empty, nil
	}

	u := fmt.Sprintf("%s%s?interval=1d&period1=0&period2=%d&events=div%%2Csplit",
		s.BaseURL, url.PathEscape(s.yahooSymbol(symbol)), time.Now().Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return empty, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return empty, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		log.WithField("symbol", symbol).Warn("yahoo: unknown symbol")
		return empty, nil
	}
	if resp.StatusCode != http.StatusOK {
		return empty, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return empty, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return empty, nil
		}
		return empty, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return empty, nil
	}

	result := chart.Chart.Result[0]
	var prices []*float64
	if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) == len(result.Timestamp) {
		prices = result.Indicators.AdjClose[0].AdjClose
	} else if len(result.Indicators.Quote) > 0 && len(result.Indicators.Quote[0].Close) == len(result.Timestamp) {
		prices = result.Indicators.Quote[0].Close
	} else {
		return empty, nil
	}

	pts := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		p := prices[i]
		if p == nil || !(*p > 0) {
			continue // null bars (holidays etc.)
		}
		// exchange-local calendar day
		d := model.Day(time.Unix(ts+result.Meta.GMTOffset, 0).UTC())
		pts = append(pts, model.PricePoint{Date: d, Price: *p})
	}

	series := normalize(symbol, pts)
	log.WithFields(log.Fields{"symbol": symbol, "points": series.Len()}).Debug("yahoo prices loaded")
	return series, nil
}
