package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"TalmudBacktest/internal/model"
	"TalmudBacktest/internal/recorder"
)

const dateLayout = "2006-01-02"

// Money formats v as whole dollars with thousands separators.
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	if v < 0 {
		return "-$" + humanize.FormatFloat("#,###.", -v)
	}
	return "$" + humanize.FormatFloat("#,###.", v)
}

// Percent formats a ratio as a percentage with two decimals.
func Percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func period(res *model.Result) (time.Time, time.Time) {
	if len(res.Curve) == 0 {
		return res.Request.Start, res.Request.End
	}
	return res.Curve[0].Date, res.Curve[len(res.Curve)-1].Date
}

type metricRow struct {
	name            string
	strategy, bench string
}

func metricRows(res *model.Result) []metricRow {
	s, b := res.Strategy, res.BenchmarkMetrics
	return []metricRow{
		{"Final equity", Money(res.FinalEquity()), Money(res.FinalBenchmark())},
		{"Total return", Percent(s.TotalReturn), Percent(b.TotalReturn)},
		{"CAGR", Percent(s.CAGR), Percent(b.CAGR)},
		{"Max drawdown", Percent(s.MaxDrawdown), Percent(b.MaxDrawdown)},
		{"Volatility", Percent(s.Volatility), Percent(b.Volatility)},
		{"Sharpe", fmt.Sprintf("%.2f", s.Sharpe), fmt.Sprintf("%.2f", b.Sharpe)},
	}
}

// FormatReport renders a result as a markdown document.
func FormatReport(res *model.Result) string {
	var b strings.Builder
	req := res.Request
	first, last := period(res)

	b.WriteString("# Talmud Strategy Backtest\n\n")
	b.WriteString(fmt.Sprintf("**Portfolio:** %s / %s / %s, one third each  \n", req.RealEstate, req.Stocks, req.Cash))
	b.WriteString(fmt.Sprintf("**Benchmark:** %s buy and hold  \n", req.BenchmarkSymbol()))
	b.WriteString(fmt.Sprintf("**Period:** %s to %s (%d trading days)  \n",
		first.Format(dateLayout), last.Format(dateLayout), len(res.Curve)))
	b.WriteString(fmt.Sprintf("**Rebalance:** %s  \n", req.Policy))
	b.WriteString(fmt.Sprintf("**Initial capital:** %s\n\n", Money(req.InitialCapital)))

	b.WriteString("| Metric | Talmud | Benchmark |\n")
	b.WriteString("|---|---:|---:|\n")
	for _, r := range metricRows(res) {
		b.WriteString(fmt.Sprintf("| %s | %s | %s |\n", r.name, r.strategy, r.bench))
	}

	if n := len(res.Curve); n > 0 {
		p := res.Curve[n-1]
		b.WriteString(fmt.Sprintf("\n**Final weights:** real estate %s, stocks %s, cash %s\n",
			Percent(p.WeightRE), Percent(p.WeightSTK), Percent(p.WeightCash)))
	}

	b.WriteString(fmt.Sprintf("\n## Rebalances (%d)\n\n", len(res.Rebalances)))
	if len(res.Rebalances) == 0 {
		b.WriteString("None.\n")
	}
	for _, p := range res.Curve {
		if p.Rebalanced {
			b.WriteString(fmt.Sprintf("- %s at %s\n", p.Date.Format(dateLayout), Money(p.TotalEquity)))
		}
	}
	if res.ID != "" {
		b.WriteString(fmt.Sprintf("\n_Run %s_\n", res.ID))
	}
	return b.String()
}

// FormatTelegram renders a compact HTML summary for Telegram.
func FormatTelegram(res *model.Result) string {
	var b strings.Builder
	req := res.Request
	first, last := period(res)

	b.WriteString(fmt.Sprintf("📊 <b>Talmud %s / %s / %s</b>\n", html.EscapeString(req.RealEstate),
		html.EscapeString(req.Stocks), html.EscapeString(req.Cash)))
	b.WriteString(fmt.Sprintf("%s → %s | %s rebalance\n\n", first.Format(dateLayout), last.Format(dateLayout), req.Policy))

	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-13s %14s %14s\n", "", "Talmud", html.EscapeString(req.BenchmarkSymbol())))
	for _, r := range metricRows(res) {
		b.WriteString(fmt.Sprintf("%-13s %14s %14s\n", r.name, r.strategy, r.bench))
	}
	b.WriteString("</pre>\n")

	b.WriteString(fmt.Sprintf("Rebalances: %d", len(res.Rebalances)))
	if n := len(res.Rebalances); n > 0 {
		b.WriteString(fmt.Sprintf(" (last %s)", res.Rebalances[n-1].Format(dateLayout)))
	}
	b.WriteString("\n")
	return b.String()
}

// FormatRange renders the common date range of a symbol set.
func FormatRange(symbols []string, start, end, suggested time.Time) string {
	return fmt.Sprintf("📅 <b>%s</b>\nCommon range: %s → %s\nSuggested start: %s\n",
		html.EscapeString(strings.Join(symbols, " / ")),
		start.Format(dateLayout), end.Format(dateLayout), suggested.Format(dateLayout))
}

// FormatHistory renders recent recorded runs.
func FormatHistory(runs []recorder.RunSummary) string {
	if len(runs) == 0 {
		return "No recorded runs yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent runs</b>\n\n")
	for _, r := range runs {
		b.WriteString(fmt.Sprintf("%s %s/%s/%s %s: %s (CAGR %s, MaxDD %s)\n",
			r.CreatedAt.Format("01-02 15:04"),
			html.EscapeString(r.Request.RealEstate), html.EscapeString(r.Request.Stocks), html.EscapeString(r.Request.Cash),
			r.Request.Policy, Money(r.FinalEquity), Percent(r.Strategy.CAGR), Percent(r.Strategy.MaxDrawdown)))
	}
	return b.String()
}
