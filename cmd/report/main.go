package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/noah-isme/inventory-notify/internal/app"
	"github.com/noah-isme/inventory-notify/internal/config"
	"github.com/noah-isme/inventory-notify/internal/lock"
	"github.com/noah-isme/inventory-notify/internal/obs"
	"github.com/noah-isme/inventory-notify/internal/report"
	"github.com/noah-isme/inventory-notify/internal/templates"
)

func main() {
	var (
		interval = flag.Duration("interval", 0, "send a report every interval until interrupted; 0 sends once")
		to       = flag.String("to", "", "comma separated recipients; overrides REPORT_RECIPIENTS")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "report").Logger()
	if cfg.InventoryAPIURL == "" {
		logger.Fatal().Msg("INVENTORY_API_URL is required")
	}

	recipients := cfg.ReportRecipients
	if *to != "" {
		recipients = config.SplitList(*to)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sender := &report.Sender{
		Source:     app.NewInventoryClient(cfg, logger),
		Username:   cfg.InventoryAPIUser,
		Password:   cfg.InventoryAPIPass,
		Renderer:   templates.NewRenderer(cfg.ReportLocale, templates.WithLocation(cfg.Location())),
		Mail:       app.NewDispatcher(cfg, logger),
		Recipients: recipients,
		Logger:     logger,
	}

	if *interval <= 0 {
		sendCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		if _, err := sender.Send(sendCtx); err != nil {
			logger.Fatal().Err(err).Msg("inventory report failed")
		}
		return
	}

	if cfg.RedisURL != "" {
		rdb, err := app.NewRedis(ctx, cfg.RedisURL, false)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect redis")
		}
		defer func() { _ = rdb.Close() }()
		sender.Lock = lock.Locker{R: rdb, Prefix: "report"}
	}

	logger.Info().Dur("interval", *interval).Msg("report scheduler starting")
	if err := sender.Run(ctx, *interval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("report scheduler stopped with error")
		return
	}
	logger.Info().Msg("report scheduler shutdown complete")
}
