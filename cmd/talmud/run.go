package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"TalmudBacktest/internal/chart"
	"TalmudBacktest/internal/model"
	"TalmudBacktest/internal/notifier"
)

type runCmd struct {
	re, stk, cash, bench string
	start, end           string
	capital              float64
	policy               string
	years                int
	chartPath            string
	weightsPath          string
	jsonPath             string
	plain                bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "backtest the one-third portfolio against a benchmark" }
func (*runCmd) Usage() string {
	return `talmud run -re <sym> -stk <sym> -cash <sym> [-bench <sym>] [-start <date>] [-end <date>]
           [-capital <n>] [-policy yearly|quarterly|hold] [-years <n>] [-chart <png>] [-json <file>]

  Runs a backtest and prints a markdown report. Without -start and -end the
  window is the last -years years of the range common to every symbol.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.re, "re", "VNQ", "Real estate symbol")
	f.StringVar(&c.stk, "stk", "QQQ", "Stocks symbol")
	f.StringVar(&c.cash, "cash", "BIL", "Cash symbol")
	f.StringVar(&c.bench, "bench", "", "Benchmark symbol (defaults to the stocks symbol)")
	f.StringVar(&c.start, "start", "", "Start date YYYY-MM-DD")
	f.StringVar(&c.end, "end", "", "End date YYYY-MM-DD")
	f.Float64Var(&c.capital, "capital", 0, "Initial capital (defaults to backtest.initial_capital)")
	f.StringVar(&c.policy, "policy", "", "Rebalance policy (defaults to backtest.policy)")
	f.IntVar(&c.years, "years", 0, "Lookback in years when no dates are given (defaults to backtest.default_years)")
	f.StringVar(&c.chartPath, "chart", "", "Write the equity chart PNG to this path")
	f.StringVar(&c.weightsPath, "weights-chart", "", "Write the weights chart PNG to this path")
	f.StringVar(&c.jsonPath, "json", "", "Write the full result as JSON to this path")
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown instead of rendering it")
}

func parseDate(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("-%s: want YYYY-MM-DD, got %q", name, v)
	}
	return t, nil
}

func (c *runCmd) request(a *app) (model.Request, error) {
	req := model.Request{
		RealEstate:     strings.ToUpper(c.re),
		Stocks:         strings.ToUpper(c.stk),
		Cash:           strings.ToUpper(c.cash),
		Benchmark:      strings.ToUpper(c.bench),
		InitialCapital: c.capital,
	}
	if req.InitialCapital == 0 {
		req.InitialCapital = a.cfg.Backtest.InitialCapital
	}
	policy := c.policy
	if policy == "" {
		policy = a.cfg.Backtest.Policy
	}
	p, err := model.ParsePolicy(policy)
	if err != nil {
		return req, err
	}
	req.Policy = p
	if req.Start, err = parseDate("start", c.start); err != nil {
		return req, err
	}
	if req.End, err = parseDate("end", c.end); err != nil {
		return req, err
	}
	return req, nil
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	req, err := c.request(a)
	if err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}
	if req.Start.IsZero() && req.End.IsZero() {
		years := c.years
		if years <= 0 {
			years = a.cfg.Backtest.DefaultYears
		}
		req.Start, req.End = a.runner.Window(ctx, years, req.Symbols()...)
	}

	res, err := a.runner.Run(ctx, req)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}

	if c.plain {
		fmt.Print(notifier.FormatReport(res))
	} else {
		printMarkdown(notifier.FormatReport(res))
	}

	if err := c.writeOutputs(res); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *runCmd) writeOutputs(res *model.Result) error {
	if c.chartPath != "" {
		png, err := chart.EquityPNG(res)
		if err != nil {
			return fmt.Errorf("render equity chart: %w", err)
		}
		if err := os.WriteFile(c.chartPath, png, 0o644); err != nil {
			return err
		}
	}
	if c.weightsPath != "" {
		png, err := chart.WeightsPNG(res)
		if err != nil {
			return fmt.Errorf("render weights chart: %w", err)
		}
		if err := os.WriteFile(c.weightsPath, png, 0o644); err != nil {
			return err
		}
	}
	if c.jsonPath != "" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(c.jsonPath, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
