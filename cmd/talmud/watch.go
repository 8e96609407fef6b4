package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	log "github.com/sirupsen/logrus"

	"TalmudBacktest/internal/notifier"
	"TalmudBacktest/internal/scheduler"
	"TalmudBacktest/internal/watchlist"
)

type watchCmd struct {
	runNow bool
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "re-run the watch list on a schedule and report to Telegram" }
func (*watchCmd) Usage() string {
	return `talmud watch [-now]

  Re-runs every portfolio of the watch list on schedule.watch_cron, sends the
  report and equity chart to Telegram, and answers chat commands.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.runNow, "now", os.Getenv("RUN_ON_START") == "true", "Run the watch list once at startup (env RUN_ON_START)")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	if err := a.cfg.ValidateTelegram(); err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}

	store, err := watchlist.NewStore(a.cfg.Schedule.StateFile)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
	sched := scheduler.NewScheduler(ctx, a.runner, tn, a.recorder, store, a.cfg)
	if err := sched.RegisterAll(a.cfg.Schedule.WatchCron); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info("telegram polling started")

	if c.runNow {
		go sched.RunWatchNow()
	}

	log.WithField("cron", a.cfg.Schedule.WatchCron).Info("watching, press Ctrl+C to stop")
	<-ctx.Done()
	log.Info("shutdown signal received, stopping...")
	return subcommands.ExitSuccess
}
