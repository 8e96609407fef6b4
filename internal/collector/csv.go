package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"TalmudBacktest/internal/model"
)

// CSVSource reads `<symbol>.csv` files with a Date column and an
// "Adj Close" or "Close" column, as written by common market data exporters.
type CSVSource struct {
	Dir string
}

// NewCSVSource creates a source rooted at dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

func (s *CSVSource) Name() string { return "csv" }

// LoadPriceSeries tries `<symbol>.csv` and then the upper-cased name.
func (s *CSVSource) LoadPriceSeries(ctx context.Context, symbol string) (model.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return model.PriceSeries{}, err
	}
	empty := model.PriceSeries{Symbol: symbol}
	if strings.TrimSpace(symbol) == "" {
		return empty, nil
	}

	for _, name := range []string{symbol + ".csv", strings.ToUpper(symbol) + ".csv"} {
		f, err := os.Open(filepath.Join(s.Dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return empty, fmt.Errorf("open %s: %w", name, err)
		}
		series, err := parsePriceCSV(symbol, f)
		f.Close()
		if unusable(err) {
			log.WithError(err).WithFields(log.Fields{"symbol": symbol, "file": name}).Warn("unusable csv, treating as no data")
			return empty, nil
		}
		if err != nil {
			return empty, fmt.Errorf("parse %s: %w", name, err)
		}
		log.WithFields(log.Fields{"symbol": symbol, "file": name, "points": series.Len()}).Debug("csv prices loaded")
		return series, nil
	}

	log.WithField("symbol", symbol).Debug("no csv file for symbol")
	return empty, nil
}

var errNoDateColumn = errors.New("missing Date column")

// unusable reports whether err describes file content rather than an I/O failure.
func unusable(err error) bool {
	var pe *csv.ParseError
	return errors.As(err, &pe) || errors.Is(err, errNoDateColumn)
}

func parsePriceCSV(symbol string, r io.Reader) (model.PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return model.PriceSeries{Symbol: symbol}, nil
	}
	if err != nil {
		return model.PriceSeries{}, err
	}

	dateCol, adjCol, closeCol := -1, -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case "Date":
			dateCol = i
		case "Adj Close":
			adjCol = i
		case "Close":
			closeCol = i
		}
	}
	if dateCol < 0 {
		return model.PriceSeries{}, errNoDateColumn
	}
	priceCol := adjCol
	if priceCol < 0 {
		priceCol = closeCol
	}
	if priceCol < 0 {
		return model.PriceSeries{Symbol: symbol}, nil
	}

	var pts []model.PricePoint
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.PriceSeries{}, err
		}
		if dateCol >= len(rec) || priceCol >= len(rec) {
			continue
		}
		d, err := parseDate(rec[dateCol])
		if err != nil {
			continue
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(rec[priceCol]), 64)
		if err != nil || !(p > 0) {
			continue
		}
		pts = append(pts, model.PricePoint{Date: d, Price: p})
	}
	return normalize(symbol, pts), nil
}

// parseDate accepts plain dates and timestamps; only the calendar day is kept.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 10 {
		s = s[:10]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse("2006/01/02", s)
	}
	if err != nil {
		return time.Time{}, err
	}
	return model.Day(t), nil
}
