package scheduler

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"TalmudBacktest/internal/backtest"
	"TalmudBacktest/internal/chart"
	"TalmudBacktest/internal/config"
	"TalmudBacktest/internal/model"
	"TalmudBacktest/internal/notifier"
	"TalmudBacktest/internal/recorder"
	"TalmudBacktest/internal/watchlist"
)

// Notifier delivers watch reports.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
	SendPhoto(ctx context.Context, png []byte, caption string) error
}

// Scheduler re-runs the configured watch list on a cron schedule and
// answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   *backtest.Runner
	Notifier Notifier
	Recorder recorder.Recorder
	Store    *watchlist.Store
	Watch    []config.WatchItem
	Defaults config.BacktestConfig
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner *backtest.Runner, n Notifier, rec recorder.Recorder, store *watchlist.Store, cfg *config.Config) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   runner,
		Notifier: n,
		Recorder: rec,
		Store:    store,
		Watch:    cfg.Watch,
		Defaults: cfg.Backtest,
		Ctx:      ctx,
	}
}

// RegisterAll registers the watch task.
func (s *Scheduler) RegisterAll(watchCron string) error {
	if _, err := s.Cron.AddFunc(watchCron, s.watchTask); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.WithField("items", len(s.Watch)).Info("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info("scheduler stopped")
}

// RunWatchNow executes the watch task immediately.
func (s *Scheduler) RunWatchNow() {
	s.watchTask()
}

func (s *Scheduler) watchTask() {
	log.WithField("items", len(s.Watch)).Info("running watch task")
	for _, item := range s.Watch {
		if s.Ctx.Err() != nil {
			return
		}
		s.runItem(item)
	}
}

func itemName(item config.WatchItem) string {
	if item.Name != "" {
		return item.Name
	}
	return strings.Join([]string{item.RealEstate, item.Stocks, item.Cash}, "/")
}

func (s *Scheduler) requestFor(ctx context.Context, re, stk, cash, bench string, policy model.Policy, years int) model.Request {
	if years <= 0 {
		years = s.Defaults.DefaultYears
	}
	symbols := []string{re, stk, cash}
	if bench != "" {
		symbols = append(symbols, bench)
	}
	start, end := s.Runner.Window(ctx, years, symbols...)
	return model.Request{
		RealEstate:     re,
		Stocks:         stk,
		Cash:           cash,
		Benchmark:      bench,
		Start:          start,
		End:            end,
		InitialCapital: s.Defaults.InitialCapital,
		Policy:         policy,
	}
}

func (s *Scheduler) policyOr(name string) model.Policy {
	for _, candidate := range []string{name, s.Defaults.Policy} {
		if p, err := model.ParsePolicy(candidate); err == nil {
			return p
		}
	}
	return model.Yearly
}

func (s *Scheduler) runItem(item config.WatchItem) {
	name := itemName(item)
	logger := log.WithField("watch", name)

	req := s.requestFor(s.Ctx, item.RealEstate, item.Stocks, item.Cash, item.Benchmark, s.policyOr(item.Policy), item.Years)
	res, err := s.Runner.Run(s.Ctx, req)
	if err != nil {
		logger.WithError(err).Error("watch run failed")
		s.trySend(fmt.Sprintf("❌ <b>%s</b>: %s", html.EscapeString(name), html.EscapeString(err.Error())))
		return
	}

	fresh := false
	if s.Store != nil {
		if fresh, err = s.Store.Update(name, res); err != nil {
			logger.WithError(err).Warn("update watch state")
		}
	}

	msg := notifier.FormatTelegram(res)
	if fresh {
		last := res.Rebalances[len(res.Rebalances)-1]
		msg = fmt.Sprintf("🔔 <b>Rebalance due: %s</b>\nNew %s period since %s. Reset each bucket to one third.\n\n",
			html.EscapeString(name), req.Policy, last.Format("2006-01-02")) + msg
	}
	s.trySend(msg)

	if png, err := chart.EquityPNG(res); err != nil {
		logger.WithError(err).Warn("render watch chart")
	} else if err := s.Notifier.SendPhoto(s.Ctx, png, name); err != nil {
		logger.WithError(err).Warn("send watch chart")
	}
}

const helpText = `Available commands:
/backtest RE STK CASH [policy] [years]
/range RE STK CASH [BENCH]
/watch  re-run the watch list now
/history  recent runs
/assets  preset symbols`

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "/backtest":
		if len(args) < 3 {
			return "Usage: /backtest RE STK CASH [policy] [years]"
		}
		policy := s.policyOr("")
		years := 0
		if len(args) > 3 {
			p, err := model.ParsePolicy(args[3])
			if err != nil {
				return err.Error()
			}
			policy = p
		}
		if len(args) > 4 {
			n, err := strconv.Atoi(args[4])
			if err != nil || n <= 0 {
				return "years must be a positive integer"
			}
			years = n
		}
		req := s.requestFor(ctx, strings.ToUpper(args[0]), strings.ToUpper(args[1]), strings.ToUpper(args[2]), "", policy, years)
		res, err := s.Runner.Run(ctx, req)
		if err != nil {
			return "❌ " + html.EscapeString(err.Error())
		}
		return notifier.FormatTelegram(res)

	case "/range":
		if len(args) < 3 {
			return "Usage: /range RE STK CASH [BENCH]"
		}
		symbols := make([]string, 0, len(args))
		for _, a := range args {
			symbols = append(symbols, strings.ToUpper(a))
		}
		start, end := s.Runner.CommonDateRange(ctx, symbols...)
		return notifier.FormatRange(symbols, start, end, backtest.SuggestedStart(start, end))

	case "/watch":
		s.watchTask()
		return ""

	case "/history":
		if s.Recorder == nil {
			return notifier.FormatHistory(nil)
		}
		runs, err := s.Recorder.ListRuns(ctx, 10)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatHistory(runs)

	case "/assets":
		return formatAssets(model.DefaultAssetMenu())

	default:
		return helpText
	}
}

func formatAssets(menu model.AssetMenu) string {
	var b strings.Builder
	groups := []struct {
		title  string
		assets []model.Asset
	}{
		{"Real estate", menu.RealEstate},
		{"Stocks", menu.Stocks},
		{"Cash", menu.Cash},
		{"Benchmark", menu.Benchmark},
	}
	for _, g := range groups {
		b.WriteString("<b>" + g.title + "</b>\n")
		for _, a := range g.assets {
			b.WriteString(fmt.Sprintf("  %s  %s\n", a.Symbol, html.EscapeString(a.Label)))
		}
	}
	return b.String()
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.WithError(err).Error("send notification")
	}
}
