package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"TalmudBacktest/internal/backtest"
	"TalmudBacktest/internal/chart"
	"TalmudBacktest/internal/model"
	"TalmudBacktest/internal/strategy"
)

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

// statusClientClosed is reported when the caller went away before the run finished.
const statusClientClosed = 499

// statusFor maps run errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, strategy.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, strategy.ErrInsufficientData), errors.Is(err, strategy.ErrDivergentPortfolio):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosed
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"source": s.runner.Source.Name(),
	})
}

func (s *Server) assets(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: model.DefaultAssetMenu()})
}

func (s *Server) dateRange(c *gin.Context) {
	var symbols []string
	for _, q := range []string{"re", "stk", "cash", "bench"} {
		if v := strings.ToUpper(strings.TrimSpace(c.Query(q))); v != "" {
			symbols = append(symbols, v)
		}
	}
	if len(symbols) == 0 {
		fail(c, http.StatusBadRequest, errors.New("at least one of re, stk, cash, bench is required"))
		return
	}
	start, end := s.runner.CommonDateRange(c.Request.Context(), symbols...)
	c.JSON(http.StatusOK, Response{Success: true, Data: RangeResponse{
		Symbols:        symbols,
		Start:          start.Format("2006-01-02"),
		End:            end.Format("2006-01-02"),
		SuggestedStart: backtest.SuggestedStart(start, end).Format("2006-01-02"),
	}})
}

func (s *Server) runBacktest(c *gin.Context) {
	var body BacktestRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	req, err := body.toModel(s.config.Backtest.InitialCapital, s.config.Backtest.Policy)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	if t := s.config.Server.RequestTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	if req.Start.IsZero() && req.End.IsZero() {
		years := body.Years
		if years <= 0 {
			years = s.config.Backtest.DefaultYears
		}
		req.Start, req.End = s.runner.Window(ctx, years, body.symbols()...)
	}

	res, err := s.runner.Run(ctx, req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.WithError(err).Error("backtest failed")
		}
		fail(c, status, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: res})
}

func (s *Server) lookup(c *gin.Context) (*model.Result, bool) {
	id := c.Param("id")
	if s.runner.Cache == nil {
		fail(c, http.StatusNotFound, errors.New("result cache disabled"))
		return nil, false
	}
	res, ok, err := s.runner.Cache.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return nil, false
	}
	if !ok {
		fail(c, http.StatusNotFound, errors.New("run "+id+" not found or expired"))
		return nil, false
	}
	return res, true
}

func (s *Server) getBacktest(c *gin.Context) {
	if res, ok := s.lookup(c); ok {
		c.JSON(http.StatusOK, Response{Success: true, Data: res})
	}
}

func (s *Server) getChart(c *gin.Context) {
	res, ok := s.lookup(c)
	if !ok {
		return
	}
	render := chart.EquityPNG
	switch c.DefaultQuery("kind", "equity") {
	case "equity":
	case "weights":
		render = chart.WeightsPNG
	default:
		fail(c, http.StatusBadRequest, errors.New("kind must be equity or weights"))
		return
	}
	png, err := render(res)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) listRuns(c *gin.Context) {
	if s.runner.Recorder == nil {
		c.JSON(http.StatusOK, Response{Success: true, Data: []struct{}{}})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		fail(c, http.StatusBadRequest, errors.New("limit must be a positive integer"))
		return
	}
	runs, err := s.runner.Recorder.ListRuns(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: runs})
}
