package model

import "time"

// PricePoint is one daily observation of an asset price.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceSeries holds the daily (adjusted) price history of a single symbol.
// Dates are UTC midnight and strictly increasing.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Empty reports whether the series has no observations.
func (s PriceSeries) Empty() bool { return len(s.Points) == 0 }

// Len returns the number of observations.
func (s PriceSeries) Len() int { return len(s.Points) }

// First returns the earliest observation. The series must not be empty.
func (s PriceSeries) First() PricePoint { return s.Points[0] }

// Last returns the latest observation. The series must not be empty.
func (s PriceSeries) Last() PricePoint { return s.Points[len(s.Points)-1] }

// Clip returns the observations falling inside the closed window [start, end].
// A zero start or end leaves that side open.
func (s PriceSeries) Clip(start, end time.Time) PriceSeries {
	out := PriceSeries{Symbol: s.Symbol}
	for _, p := range s.Points {
		if !start.IsZero() && p.Date.Before(start) {
			continue
		}
		if !end.IsZero() && p.Date.After(end) {
			break
		}
		out.Points = append(out.Points, p)
	}
	return out
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Quarter returns the zero-based quarter of t's month (0 for Jan-Mar).
func Quarter(t time.Time) int { return int(t.Month()-1) / 3 }
