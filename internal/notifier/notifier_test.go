package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TalmudBacktest/internal/model"
	"TalmudBacktest/internal/recorder"
)

func sampleResult() *model.Result {
	d := time.Date(2020, 12, 30, 0, 0, 0, 0, time.UTC)
	return &model.Result{
		ID:      "abc",
		Request: model.Request{RealEstate: "VNQ", Stocks: "QQQ", Cash: "BIL", Benchmark: "SPY", InitialCapital: 1_000_000, Policy: model.Yearly},
		Curve: []model.EquityPoint{
			{Date: d, TotalEquity: 1_000_000, WeightRE: 1.0 / 3, WeightSTK: 1.0 / 3, WeightCash: 1.0 / 3},
			{Date: d.AddDate(0, 0, 5), TotalEquity: 1_234_567.89, WeightRE: 1.0 / 3, WeightSTK: 1.0 / 3, WeightCash: 1.0 / 3, Rebalanced: true},
		},
		Benchmark:        []model.BenchmarkPoint{{Date: d, Equity: 1_000_000}, {Date: d.AddDate(0, 0, 5), Equity: 1_500_000}},
		Rebalances:       []time.Time{d.AddDate(0, 0, 5)},
		Strategy:         model.Metrics{TotalReturn: 0.2345678, CAGR: 0.1, MaxDrawdown: -0.05, Volatility: 0.12, Sharpe: 0.5},
		BenchmarkMetrics: model.Metrics{TotalReturn: 0.5, CAGR: 0.2, MaxDrawdown: -0.25, Volatility: 0.2, Sharpe: 0.8},
	}
}

func TestMoneyAndPercent(t *testing.T) {
	assert.Equal(t, "$1,000,000", Money(1_000_000))
	assert.Equal(t, "$1,234,568", Money(1_234_567.89))
	assert.Equal(t, "-$2,500", Money(-2500))
	assert.Equal(t, "23.46%", Percent(0.2345678))
	assert.Equal(t, "-5.00%", Percent(-0.05))
}

func TestFormatReport(t *testing.T) {
	out := FormatReport(sampleResult())
	assert.Contains(t, out, "**Portfolio:** VNQ / QQQ / BIL")
	assert.Contains(t, out, "**Benchmark:** SPY")
	assert.Contains(t, out, "2020-12-30 to 2021-01-04 (2 trading days)")
	assert.Contains(t, out, "**Rebalance:** yearly")
	assert.Contains(t, out, "| Final equity | $1,234,568 | $1,500,000 |")
	assert.Contains(t, out, "| Max drawdown | -5.00% | -25.00% |")
	assert.Contains(t, out, "| Sharpe | 0.50 | 0.80 |")
	assert.Contains(t, out, "## Rebalances (1)")
	assert.Contains(t, out, "- 2021-01-04 at $1,234,568")
	assert.Contains(t, out, "_Run abc_")
}

func TestFormatReport_NoRebalances(t *testing.T) {
	res := sampleResult()
	res.Rebalances = nil
	res.Curve[1].Rebalanced = false
	assert.Contains(t, FormatReport(res), "None.")
}

func TestFormatTelegram(t *testing.T) {
	res := sampleResult()
	res.Request.Stocks = "<Q>"
	out := FormatTelegram(res)
	assert.Contains(t, out, "&lt;Q&gt;")
	assert.Contains(t, out, "<pre>")
	assert.Contains(t, out, "Rebalances: 1 (last 2021-01-04)")
}

func TestFormatRangeAndHistory(t *testing.T) {
	d := time.Date(2016, 1, 4, 0, 0, 0, 0, time.UTC)
	out := FormatRange([]string{"VNQ", "QQQ", "BIL"}, d, d.AddDate(8, 0, 0), d.AddDate(3, 0, 0))
	assert.Contains(t, out, "2016-01-04 → 2024-01-04")
	assert.Contains(t, out, "Suggested start: 2019-01-04")

	assert.Equal(t, "No recorded runs yet.", FormatHistory(nil))
	hist := FormatHistory([]recorder.RunSummary{{
		CreatedAt:   d,
		Request:     model.Request{RealEstate: "VNQ", Stocks: "QQQ", Cash: "BIL", Policy: model.Quarterly},
		FinalEquity: 1_100_000,
		Strategy:    model.Metrics{CAGR: 0.07, MaxDrawdown: -0.1},
	}})
	assert.Contains(t, hist, "VNQ/QQQ/BIL quarterly: $1,100,000 (CAGR 7.00%, MaxDD -10.00%)")
}

func TestTelegram_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	require.NoError(t, n.Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "<b>hi</b>", got["text"])
}

func TestTelegram_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ok":false,"description":"chat not found"}`)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	err := n.Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegram_SendPhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendPhoto", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "42", r.FormValue("chat_id"))
		assert.Equal(t, "caption", r.FormValue("caption"))
		if f, _, err := r.FormFile("photo"); assert.NoError(t, err) {
			data, _ := io.ReadAll(f)
			assert.Equal(t, []byte("PNGDATA"), data)
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	require.NoError(t, n.SendPhoto(context.Background(), []byte("PNGDATA"), "caption"))
}

func TestRetry(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retry(context.Background(), 1, time.Millisecond, func() error {
		calls++
		return errors.New("down")
	})
	assert.ErrorContains(t, err, "all 2 retries exhausted")
	assert.Equal(t, 2, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = retry(ctx, 3, time.Hour, func() error { return errors.New("down") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartPolling(t *testing.T) {
	var served int32
	replies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if atomic.AddInt32(&served, 1) == 1 {
				fmt.Fprint(w, `{"ok":true,"result":[{"update_id":7,"message":{"text":" /help "}}]}`)
				return
			}
			assert.Equal(t, "8", r.URL.Query().Get("offset"))
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			select {
			case replies <- body["text"]:
			default:
			}
			fmt.Fprint(w, `{"ok":true}`)
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, cmd string) string { return "got " + cmd })
		close(done)
	}()

	select {
	case reply := <-replies:
		assert.Equal(t, "got /help", reply)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}
