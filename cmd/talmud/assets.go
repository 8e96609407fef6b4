package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"TalmudBacktest/internal/model"
)

type assetsCmd struct{}

func (*assetsCmd) Name() string           { return "assets" }
func (*assetsCmd) Synopsis() string       { return "list the preset symbols for each bucket" }
func (*assetsCmd) Usage() string          { return "talmud assets\n" }
func (*assetsCmd) SetFlags(*flag.FlagSet) {}

func (*assetsCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	menu := model.DefaultAssetMenu()
	var b strings.Builder
	for _, g := range []struct {
		title  string
		assets []model.Asset
	}{
		{"Real estate", menu.RealEstate},
		{"Stocks", menu.Stocks},
		{"Cash", menu.Cash},
		{"Benchmark", menu.Benchmark},
	} {
		b.WriteString("## " + g.title + "\n\n")
		for _, a := range g.assets {
			b.WriteString(fmt.Sprintf("- `%s` %s\n", a.Symbol, a.Label))
		}
		b.WriteString("\n")
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
