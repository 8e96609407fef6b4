package strategy

import (
	"math"
	"time"

	"TalmudBacktest/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// weekdays returns n consecutive Monday-Friday dates starting at start.
func weekdays(start time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for d := start; len(out) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		out = append(out, d)
	}
	return out
}

// linearSeries moves linearly from `from` to `to` over dates, plus an optional
// sine wobble that is zero at both ends.
func linearSeries(symbol string, dates []time.Time, from, to, wobble float64, cycles int) model.PriceSeries {
	s := model.PriceSeries{Symbol: symbol}
	last := float64(len(dates) - 1)
	for i, d := range dates {
		x := float64(i) / last
		p := from + (to-from)*x + wobble*math.Sin(2*math.Pi*float64(cycles)*x)
		s.Points = append(s.Points, model.PricePoint{Date: d, Price: p})
	}
	return s
}

func series(symbol string, pts ...any) model.PriceSeries {
	s := model.PriceSeries{Symbol: symbol}
	for i := 0; i < len(pts); i += 2 {
		s.Points = append(s.Points, model.PricePoint{Date: pts[i].(time.Time), Price: pts[i+1].(float64)})
	}
	return s
}
