package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fxbotv1/config"
	"fxbotv1/internal/bot"
	"fxbotv1/internal/broker"
	"fxbotv1/internal/calendar"
	"fxbotv1/internal/execution"
	"fxbotv1/internal/logger"
	"fxbotv1/internal/metrics"
	"fxbotv1/internal/notification"
	"fxbotv1/internal/risk"
	redisstore "fxbotv1/internal/store/redis"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[bot] starting...")

	// .env is optional; real deployments export variables directly.
	if err := godotenv.Load(); err == nil {
		log.Println("[bot] loaded .env")
	}

	cfg := config.Load()
	params, err := config.LoadParams(cfg.ParamsPath)
	if err != nil {
		log.Fatalf("[bot] params: %v", err)
	}

	logger.Init("fxbot", slog.LevelInfo)

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[bot] received %s, shutting down", sig)
		cancel()
	}()

	// ---- Terminal bridge ----
	bridge := broker.New(broker.Config{
		BaseURL: cfg.BridgeURL,
		WSURL:   cfg.BridgeWSURL,
	})
	bridge.OnReconnect = func() { prom.StreamReconnect.Inc() }
	go bridge.Run(ctx)

	// ---- Trade journal ----
	os.MkdirAll(filepath.Dir(cfg.JournalPath), 0o755)
	journal, err := execution.NewJournal(cfg.JournalPath)
	if err != nil {
		log.Fatalf("[bot] journal init failed: %v", err)
	}
	defer journal.Close()

	// ---- Redis publisher (optional) ----
	publisher, err := redisstore.New(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Printf("[bot] WARNING: redis init failed: %v (continuing without redis)", err)
	}
	defer publisher.Close()

	// ---- Notifications ----
	backends := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
		log.Println("[bot] telegram notifications enabled")
	}
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.WebhookURL))
		log.Println("[bot] webhook notifications enabled")
	}
	notifier := notification.NewMultiNotifier(backends...)

	// ---- Decision core ----
	executor := execution.NewExecutor(params.Execution.ToConfig(), bridge, journal)
	executor.OnRetry = func() { prom.OrderRetries.Inc() }

	svc := bot.NewService(cfg.Symbol, params, bot.Deps{
		Terminal: bridge,
		RiskMgr:  risk.NewManager(params.Risk, bridge),
		Executor: executor,
		// The trailing risk unit is the configured fixed stop distance.
		Trailing:  execution.NewTrailingEvaluator(params.Trailing, params.Strategy.SLPoints),
		News:      calendar.NewFilter(params.News.ToConfig()),
		Notifier:  notifier,
		Metrics:   prom,
		Health:    health,
		Publisher: publisher,
	})

	if err := svc.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("[bot] run ended: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)
	log.Println("[bot] stopped")
}
