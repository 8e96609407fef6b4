package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"TalmudBacktest/internal/backtest"
)

type rangeCmd struct{}

func (*rangeCmd) Name() string     { return "range" }
func (*rangeCmd) Synopsis() string { return "print the date range common to a set of symbols" }
func (*rangeCmd) Usage() string {
	return `talmud range <sym> [<sym>...]

  Prints the latest first date and earliest last date across the symbols,
  and the suggested start five years before the end.
`
}

func (*rangeCmd) SetFlags(*flag.FlagSet) {}

func (*rangeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	symbols := make([]string, f.NArg())
	for i, s := range f.Args() {
		symbols[i] = strings.ToUpper(s)
	}
	start, end := a.runner.CommonDateRange(ctx, symbols...)
	fmt.Printf("%s\n  common range:    %s to %s\n  suggested start: %s\n",
		strings.Join(symbols, " / "),
		start.Format("2006-01-02"), end.Format("2006-01-02"),
		backtest.SuggestedStart(start, end).Format("2006-01-02"))
	return subcommands.ExitSuccess
}
