package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"alpha-roller-go/internal/config"
	"alpha-roller-go/internal/database"
	"alpha-roller-go/internal/dom"
	"alpha-roller-go/internal/executor"
	"alpha-roller-go/internal/logger"
	"alpha-roller-go/internal/notify"
	"alpha-roller-go/internal/page"
	"alpha-roller-go/internal/store"
	"alpha-roller-go/internal/trader"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	st := store.NewStore(db)
	seedSettings(st, &cfg, log)
	log.Info("Settings store ready.")

	notifier := buildNotifier(&cfg, log)

	// No browser bridge is wired in this binary; the engine drives a
	// simulated venue page so dry-run campaigns exercise the full
	// pipeline end to end.
	doc := newSimulatedVenue()
	reader := page.NewReader(doc, log).WithHoldingsRetry(page.HoldingsRetry{
		Attempts: cfg.Venue.HoldingsAttempts,
		Backoff:  time.Duration(cfg.Venue.HoldingsBackoffMs) * time.Millisecond,
	})
	exec := executor.New(doc, reader, notifier, st, log).WithTiming(executor.Timing{
		SettleDelay:     time.Duration(cfg.Venue.SettleDelayMs) * time.Millisecond,
		EnabledAttempts: cfg.Venue.EnabledAttempts,
		EnabledBackoff:  time.Duration(cfg.Venue.EnabledBackoffMs) * time.Millisecond,
		ConfirmDelay:    time.Duration(cfg.Venue.ConfirmDelayMs) * time.Millisecond,
	})
	orch := trader.NewOrchestrator(reader, exec, notifier, log)
	engine := trader.NewEngine(log, &cfg, doc, reader, orch, st, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	api := trader.NewAPIServer(engine, st, log)
	api.Start()

	engine.Run(ctx)

	if err := api.Stop(context.Background()); err != nil {
		log.Warn("API server shutdown failed", zap.Error(err))
	}
	log.Info("Roller has been shut down.")
}

// seedSettings writes config defaults for keys the UI has never set.
func seedSettings(st *store.Store, cfg *config.Config, log *zap.Logger) {
	seed := func(key, value string) {
		if _, ok, err := st.Get(key); err == nil && !ok {
			if err := st.Set(key, value); err != nil {
				log.Warn("Failed to seed setting", zap.String("key", key), zap.Error(err))
			}
		}
	}
	seed(store.KeyUsdtAmount, strconv.FormatFloat(cfg.Trading.UsdtAmount, 'f', -1, 64))
	seed(store.KeyTargetUsdtAmount, strconv.FormatFloat(cfg.Trading.TargetUsdtAmount, 'f', -1, 64))
	seed(store.KeyDryRunEnabled, strconv.FormatBool(cfg.Trading.DryRun))
	seed(store.KeyAutoTradingEnabled, strconv.FormatBool(cfg.Trading.AutoTrading))
}

func buildNotifier(cfg *config.Config, log *zap.Logger) notify.Notifier {
	notifiers := notify.Fanout{
		notify.Func(func(event notify.Event) {
			log.Named("events").Info("event",
				zap.String("action", event.Action),
				zap.Float64("price", event.Price),
				zap.Float64("quantity", event.Quantity),
				zap.Bool("dry_run", event.DryRun),
				zap.Float64("cumulative", event.CumulativeAmount))
		}),
	}
	webhook := notify.NewWebhook(&cfg.Notifier, log)
	if webhook.Enabled() {
		log.Info("Webhook notifications enabled")
		notifiers = append(notifiers, webhook)
	}
	return notifiers
}

// newSimulatedVenue builds a stub instrument page shaped like the live
// venue's instant-order panel.
func newSimulatedVenue() *dom.StubDocument {
	doc := dom.NewStubDocument(
		"https://www.binance.com/en/alpha/bsc/0xae1e85c3665b70b682defd778e3dafdf09ed3b0f",
		"KOGE/USDT | Binance",
	)

	price := dom.NewStubElement("div", "0.4523")
	price.ID = "lastPrice"
	price.Visible.FontSize = 24
	doc.Add(price)

	symbol := dom.NewStubElement("div", "KOGE")
	doc.Add(symbol, `[data-testid="symbol-name"], .symbol-name`)

	holdings := dom.NewStubElement("span", "221.11")
	doc.Add(holdings, ".text-TertiaryText > .items-center > .text-PrimaryText")

	buyTab := dom.NewStubElement("div", "Buy")
	doc.Add(buyTab, ".bn-tabs__buySell #bn-tab-0")
	sellTab := dom.NewStubElement("div", "Sell")
	doc.Add(sellTab, ".bn-tabs__buySell #bn-tab-1")
	instantTab := dom.NewStubElement("div", "Instant")
	instantTab.ID = "bn-tab-INSTANT"
	doc.Add(instantTab)

	amount := dom.NewStubElement("input", "")
	amount.ID = "limitTotal"
	doc.Add(amount)
	sellAmount := dom.NewStubElement("input", "")
	sellAmount.ID = "limitAmount"
	doc.Add(sellAmount)

	buy := dom.NewStubElement("button", "Buy KOGE")
	doc.Add(buy, ".bn-button__buy")
	sell := dom.NewStubElement("button", "Sell KOGE")
	doc.Add(sell, ".bn-button__sell")

	return doc
}
