package strategy

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInsufficientData means a price series is missing or the aligned window is empty.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDivergentPortfolio means total equity reached zero or below during a run.
	ErrDivergentPortfolio = errors.New("divergent portfolio")
	// ErrInvalidInput rejects malformed simulation arguments.
	ErrInvalidInput = errors.New("invalid input")
)

// InsufficientDataError names the symbols that had no usable data.
type InsufficientDataError struct {
	Symbols []string
	Reason  string
}

func (e *InsufficientDataError) Error() string {
	if len(e.Symbols) == 0 {
		return fmt.Sprintf("insufficient data: %s", e.Reason)
	}
	return fmt.Sprintf("insufficient data: %s: %s", e.Reason, strings.Join(e.Symbols, ", "))
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// DivergentPortfolioError records the first date on which equity stopped being positive.
type DivergentPortfolioError struct {
	Date   time.Time
	Equity float64
}

func (e *DivergentPortfolioError) Error() string {
	return fmt.Sprintf("divergent portfolio: total equity %g on %s", e.Equity, e.Date.Format("2006-01-02"))
}

func (e *DivergentPortfolioError) Is(target error) bool { return target == ErrDivergentPortfolio }
