package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"LevelScan/internal/chart"
	"LevelScan/internal/collector"
	"LevelScan/internal/config"
	"LevelScan/internal/model"
	"LevelScan/internal/notifier"
	"LevelScan/internal/report"
	"LevelScan/internal/scanner"
	"LevelScan/internal/scheduler"
	"LevelScan/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] LevelScan starting...")

	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "kite":
		fetcher = collector.NewKiteFetcher(cfg.DataSource.KiteAPIKey, cfg.DataSource.KiteAccessToken, cfg.DataSource.KiteExchange, cfg.Proxy)
	case "alpaca":
		fetcher = collector.NewAlpacaFetcher(cfg.DataSource.AlpacaAPIKey, cfg.DataSource.AlpacaAPISecret, cfg.Proxy)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	var st store.Store = store.NewNoopStore()
	if cfg.Database.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite store failed, using noop: %v", err)
		} else {
			st = ss
			defer ss.Close()
		}
	}

	col := collector.NewCollector(fetcher, st, cfg.Years)
	sc := scanner.NewScanner(col, st, scanner.Params{
		Window:     cfg.Detector.Window,
		Tolerance:  cfg.Filter.Tolerance,
		MinTouches: cfg.Filter.MinTouches,
		MinGapDays: cfg.Filter.MinGapDays,
	})

	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}

	chartOpts := chart.Options{
		OutputDir:  cfg.Chart.OutputDir,
		DarkMode:   cfg.Chart.DarkMode,
		Volume:     cfg.Chart.Volume,
		CloseUp:    cfg.Chart.CloseUp,
		SMAPeriods: cfg.Chart.SMAPeriods,
	}

	runScan := func() {
		results := sc.ScanAll(cfg.Symbols)
		for _, a := range results {
			emit(a, chartOpts, cfg.Report.SummaryFile, tn)
		}
		log.Printf("[INFO] scan complete: %d/%d symbols", len(results), len(cfg.Symbols))
	}

	if !cfg.Watch.Enabled {
		runScan()
		return
	}

	sched := scheduler.NewScheduler()
	if err := sched.Register(cfg.Watch.Cron, runScan); err != nil {
		log.Fatalf("[FATAL] register scan task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, scanning now")
		go runScan()
	}

	log.Println("[INFO] LevelScan is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
}

func emit(a *model.Analysis, chartOpts chart.Options, summaryFile string, tn *notifier.TelegramNotifier) {
	text := report.FormatAnalysis(a)
	fmt.Println(text)

	if summaryFile != "" {
		if err := report.Append(summaryFile, text); err != nil {
			log.Printf("[WARN] write summary for %s: %v", a.Symbol, err)
		}
	}

	paths, err := chart.Render(a, chartOpts)
	if err != nil {
		log.Printf("[WARN] render chart for %s: %v", a.Symbol, err)
	} else {
		for _, p := range paths {
			log.Printf("[INFO] chart written: %s", p)
		}
	}

	if err := tn.NotifyScan(a); err != nil {
		log.Printf("[WARN] notify %s: %v", a.Symbol, err)
	}
}
