package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"MarketSnapshot/internal/collector"
	"MarketSnapshot/internal/config"
	"MarketSnapshot/internal/ivhistory"
	"MarketSnapshot/internal/logger"
	"MarketSnapshot/internal/metrics"
	"MarketSnapshot/internal/notifier"
	"MarketSnapshot/internal/recorder"
	"MarketSnapshot/internal/scheduler"
	"MarketSnapshot/internal/snapshot"
	"MarketSnapshot/internal/universe"
)

func main() {
	limit := flag.Int("limit", 0, "only process the first N symbols")
	verbose := registerVerbosity(flag.CommandLine)
	universeFlag := flag.String("universe", "", "comma-separated seed lists: SP500,NAS100,DOW30,EXTRA")
	interval := flag.String("interval", "", "bar interval, e.g. 1d, 1h, 15m")
	period := flag.String("period", "", "lookback period, e.g. 120d, 1y")
	output := flag.String("output", "", "snapshot JSON path")
	noPretty := flag.Bool("no-pretty", false, "write compact JSON")
	daemon := flag.Bool("daemon", false, "run on the configured cron schedule until stopped")
	flag.Parse()

	log := logger.GetLogger()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	applyFlags(cfg, *limit, *universeFlag, *interval, *period, *output, *noPretty)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("config validation")
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File, cfg.Logging.MaxAgeDays); err != nil {
		log.WithError(err).Fatal("configure logging")
	}
	if *verbose > 0 {
		log.SetVerbosity(*verbose)
	}

	symbols := universe.Build(cfg.Universe.Sources, cfg.Universe.Symbols, cfg.Universe.Limit)
	log.WithFields(logger.Fields{
		"interval":  cfg.Market.Interval,
		"period":    cfg.Market.Period,
		"risk_free": cfg.Market.RiskFree,
		"iv_enable": cfg.Options.Enable,
		"iv_max":    cfg.Options.Max,
		"universe":  strings.Join(cfg.Universe.Sources, ","),
		"symbols":   len(symbols),
	}).Info("MarketSnapshot starting")

	fetcher := collector.NewYahooFetcher(cfg.Proxy, cfg.Fetch.RequestsPerSecond, time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second)
	log.WithFields(logger.Fields{"source": fetcher.Name()}).Info("data source ready")

	var history ivhistory.Backend
	switch cfg.Options.HistoryBackend {
	case "sqlite":
		hb, err := ivhistory.NewSQLiteBackend(cfg.Database.SQLitePath)
		if err != nil {
			log.WithError(err).Fatal("open iv history")
		}
		defer hb.Close()
		history = hb
	default:
		history = ivhistory.NewFileBackend(cfg.Options.HistoryPath)
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.WithError(err).Warn("init sqlite recorder failed, using noop")
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	writers := []snapshot.Writer{&snapshot.JSONWriter{Path: cfg.Output.Path, Pretty: cfg.Output.Pretty}}
	if cfg.Output.ParquetPath != "" {
		writers = append(writers, &snapshot.ParquetWriter{Path: cfg.Output.ParquetPath})
	}

	builder := snapshot.NewBuilder(fetcher, history, snapshot.Options{
		Interval:        cfg.Market.Interval,
		Period:          cfg.Market.Period,
		HistMax:         cfg.Market.HistMax,
		IVEnable:        cfg.Options.Enable,
		IVMax:           cfg.Options.Max,
		HistoryCapacity: cfg.Options.HistoryCapacity,
		Concurrency:     cfg.Fetch.Concurrency,
		Analytics:       cfg.Analytics(),
		IV:              cfg.IV(),
	}).WithRecorder(rec).WithWriters(writers...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.WithError(err).Error("metrics server failed")
			}
		}()
		log.WithFields(logger.Fields{"addr": cfg.Metrics.Addr}).Info("metrics endpoint enabled")
	}

	if !*daemon {
		if _, err := builder.Build(ctx, symbols); err != nil {
			if errors.Is(err, context.Canceled) {
				log.Warn("build interrupted")
				os.Exit(130)
			}
			log.WithError(err).Fatal("snapshot build failed")
		}
		return
	}

	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, builder, symbols, sender, rec)
	if err := sched.Register(cfg.Schedule.SnapshotCron); err != nil {
		log.WithError(err).Fatal("register cron task")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, building snapshot now")
		go sched.RunNow()
	}

	log.WithFields(logger.Fields{"cron": cfg.Schedule.SnapshotCron}).Info("MarketSnapshot is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info("shutdown signal received, stopping...")
}

// applyFlags lets explicit command-line flags win over file and env config.
func applyFlags(cfg *config.Config, limit int, universeList, interval, period, output string, noPretty bool) {
	if limit > 0 {
		cfg.Universe.Limit = limit
	}
	if universeList != "" {
		cfg.Universe.Sources = strings.Split(universeList, ",")
	}
	if interval != "" {
		cfg.Market.Interval = config.NormInterval(interval)
	}
	if period != "" {
		cfg.Market.Period = period
	}
	if output != "" {
		cfg.Output.Path = output
	}
	if noPretty {
		cfg.Output.Pretty = false
	}
}
