package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"FlipScout/internal/config"
	"FlipScout/internal/logger"
	"FlipScout/internal/market"
	"FlipScout/internal/runner"
	"FlipScout/internal/scorer"
	"FlipScout/internal/server"
	"FlipScout/internal/store"
	"FlipScout/internal/suggest"
)

func main() {
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.WithComponent("main").WithError(err).Fatal("load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.WithComponent("main").WithError(err).Fatal("config validation")
	}

	logger.Init(cfg.Log.Level, cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
	log := logger.WithComponent("main")
	log.Info("FlipScout starting")

	// Store: SQLite when configured, otherwise a no-op (no fallback data).
	var st store.Store
	if cfg.Database.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.WithError(err).Warn("sqlite store unavailable, using noop")
			st = store.NewNoopStore()
		} else {
			st = ss
		}
	} else {
		st = store.NewNoopStore()
	}
	defer st.Close()

	client := market.NewClient(market.Options{
		BaseURL:       cfg.Market.BaseURL,
		UserAgent:     cfg.Market.UserAgent,
		Timeout:       time.Duration(cfg.Market.TimeoutSeconds) * time.Second,
		Retries:       cfg.Market.Retries,
		RetryDelay:    time.Duration(cfg.Market.RetryDelayMS) * time.Millisecond,
		RatePerSecond: cfg.Market.RatePerSecond,
	})

	run := runner.New(client, st, runner.Config{
		Haircut: cfg.Suggest.Haircut,
		Filter:  cfg.Filter,
		Suggest: suggest.Options{
			TopK:           cfg.Suggest.TopK,
			MaxQuantityCap: cfg.Suggest.MaxQuantityCap,
			MinTotalProfit: cfg.Suggest.MinTotalProfit,
		},
		ModelFile: cfg.Scorer.ModelFile,
		QLearn: scorer.QLearnParams{
			Episodes:     cfg.Scorer.Episodes,
			Epsilon:      cfg.Scorer.Epsilon,
			EpsilonFloor: cfg.Scorer.EpsilonFloor,
			EpsilonDecay: cfg.Scorer.EpsilonDecay,
			Alpha:        cfg.Scorer.Alpha,
			Gamma:        cfg.Scorer.Gamma,
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional scheduled refresh keeps the price history growing even
	// when nobody asks for suggestions.
	if cfg.Schedule.RefreshCron != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.Schedule.RefreshCron, func() {
			refreshCtx, done := context.WithTimeout(ctx, 2*time.Minute)
			defer done()
			if err := run.Refresh(refreshCtx); err != nil {
				log.WithError(err).Warn("scheduled refresh failed")
			}
		}); err != nil {
			log.WithError(err).Fatal("register refresh cron")
		}
		c.Start()
		defer c.Stop()
		log.WithField("cron", cfg.Schedule.RefreshCron).Info("scheduled refresh enabled")
	}

	srv := server.New(run, st, cfg.ExportDir)
	go func() {
		if err := srv.Run(cfg.Server.Addr); err != nil {
			log.WithError(err).Fatal("http server")
		}
	}()

	log.Info("FlipScout is running. Press Ctrl+C to stop.")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping")
	cancel()
	log.Info("FlipScout stopped")
}
