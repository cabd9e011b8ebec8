// Package bot wires the decision core together and runs the evaluation
// loop: poll candles, run the cascade, size, execute, trail stops.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fxbotv1/config"
	"fxbotv1/internal/calendar"
	"fxbotv1/internal/execution"
	"fxbotv1/internal/logger"
	"fxbotv1/internal/metrics"
	"fxbotv1/internal/model"
	"fxbotv1/internal/notification"
	"fxbotv1/internal/risk"
	"fxbotv1/internal/store/redis"
	"fxbotv1/internal/strategy"
)

// Service is the evaluation-loop orchestrator. One Service trades one
// symbol; cycles run strictly sequentially.
type Service struct {
	symbol   string
	params   config.Params
	terminal model.Terminal

	cascade  *strategy.Cascade
	riskMgr  *risk.Manager
	executor *execution.Executor
	trailing *execution.TrailingEvaluator
	news     *calendar.Filter
	notifier notification.Notifier
	met      *metrics.Metrics
	health   *metrics.HealthStatus
	pub      *redis.Publisher

	startedAt time.Time

	// cycle-loop state, touched only from Run's goroutine
	lastConfirmTS  time.Time
	tradesToday    int
	haltAlerted    bool
	lastSummaryDay int
}

// Deps carries the constructed components into the service.
type Deps struct {
	Terminal  model.Terminal
	RiskMgr   *risk.Manager
	Executor  *execution.Executor
	Trailing  *execution.TrailingEvaluator
	News      *calendar.Filter
	Notifier  notification.Notifier
	Metrics   *metrics.Metrics
	Health    *metrics.HealthStatus
	Publisher *redis.Publisher
}

// NewService creates the orchestrator.
func NewService(symbol string, params config.Params, d Deps) *Service {
	return &Service{
		symbol:    symbol,
		params:    params,
		terminal:  d.Terminal,
		cascade:   strategy.NewCascade(params.Strategy),
		riskMgr:   d.RiskMgr,
		executor:  d.Executor,
		trailing:  d.Trailing,
		news:      d.News,
		notifier:  d.Notifier,
		met:       d.Metrics,
		health:    d.Health,
		pub:       d.Publisher,
		startedAt: time.Now(),
	}
}

// Run executes the evaluation loop until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.riskMgr.SyncDailyStats(ctx); err != nil {
		slog.Warn("initial risk sync failed", "err", err)
	}

	loop := s.params.Loop
	poll := time.NewTicker(time.Duration(loop.PollIntervalSec) * time.Second)
	defer poll.Stop()
	riskSync := time.NewTicker(time.Duration(loop.RiskSyncIntervalMin) * time.Minute)
	defer riskSync.Stop()
	heartbeat := time.NewTicker(time.Duration(loop.HeartbeatHours) * time.Hour)
	defer heartbeat.Stop()

	slog.Info("bot started",
		"symbol", s.symbol,
		"timeframes", fmt.Sprintf("%s/%s/%s", s.params.Timeframes.Slow, s.params.Timeframes.Mid, s.params.Timeframes.Fast),
		"poll_interval_sec", loop.PollIntervalSec)

	for {
		select {
		case <-ctx.Done():
			slog.Info("bot stopping", "reason", ctx.Err())
			return ctx.Err()

		case <-riskSync.C:
			if err := s.riskMgr.SyncDailyStats(ctx); err != nil {
				slog.Warn("risk sync failed", "err", err)
			}
			s.pub.PublishRiskState(ctx, s.riskMgr.Snapshot())

		case <-heartbeat.C:
			s.notify(ctx, notification.Heartbeat(s.symbol, s.startedAt))

		case <-poll.C:
			s.maybeSendSummary(ctx)
			cctx := logger.WithCycleID(ctx, logger.GenerateCycleID(s.symbol, time.Now()))
			if err := s.cycle(cctx); err != nil {
				s.met.BridgeErrors.Inc()
				s.health.SetBridgeOK(false)
				slog.Error("cycle failed", append([]any{"err", err}, logger.LogWithCycle(cctx)...)...)
				continue
			}
			s.health.SetBridgeOK(true)
			s.health.SetLastCycle(time.Now())
		}
	}
}

// cycle runs one full evaluation: trailing first, then entry checks.
// Returns an error only for bridge failures; filter rejections are
// normal outcomes.
func (s *Service) cycle(ctx context.Context) error {
	start := time.Now()
	s.met.CyclesTotal.Inc()
	defer func() { s.met.CycleDur.Observe(time.Since(start).Seconds()) }()

	acct, err := s.terminal.Account(ctx)
	if err != nil {
		return fmt.Errorf("account: %w", err)
	}
	s.met.AccountBalance.Set(acct.Balance)
	s.met.AccountEquity.Set(acct.Equity)

	spec, err := s.terminal.SymbolSpec(ctx, s.symbol)
	if err != nil {
		return fmt.Errorf("symbol spec: %w", err)
	}

	positions, err := s.terminal.OpenPositions(ctx, s.symbol)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}

	// Stops on open positions are managed every cycle, halted or not:
	// the halt latch stops new risk, not the care of existing risk.
	s.trailPositions(ctx, positions, spec)

	safe := s.riskMgr.CheckSafety(acct.Balance)
	st := s.riskMgr.Snapshot()
	s.met.DailyLoss.Set(st.DailyLoss)
	s.met.ConsecutiveLosses.Set(float64(st.ConsecutiveLosses))
	s.health.SetHalted(st.HaltTrading)
	if st.HaltTrading {
		s.met.HaltState.Set(1)
	} else {
		s.met.HaltState.Set(0)
	}

	if !safe {
		if !s.haltAlerted {
			s.haltAlerted = true
			s.notify(ctx, notification.TradingHalted(st))
			s.pub.PublishRiskState(ctx, st)
		}
		s.skip("halt")
		return nil
	}

	if !s.params.Session.CanTrade(time.Now()) {
		s.skip("session")
		return nil
	}

	if len(positions) > 0 {
		// One position per symbol at a time.
		s.skip("position")
		return nil
	}

	if limit := s.params.Filters.MaxSpreadPoints; limit > 0 {
		tick, err := s.terminal.Tick(ctx, s.symbol)
		if err != nil {
			return fmt.Errorf("tick: %w", err)
		}
		s.health.SetLastTickTime(tick.TS)
		if sp := tick.SpreadPoints(spec.Point); sp > limit {
			slog.Debug("spread too wide", append([]any{"spread_points", sp, "max", limit}, logger.LogWithCycle(ctx)...)...)
			s.skip("spread")
			return nil
		}
	}

	if ev, blocked := s.news.ImminentEvent(ctx, s.symbol); blocked {
		slog.Info("news blackout", append([]any{"event", ev.Title, "currency", ev.Country, "at", ev.Date}, logger.LogWithCycle(ctx)...)...)
		s.skip("news")
		return nil
	}

	slow, mid, fast, err := s.fetchTimeframes(ctx)
	if err != nil {
		return err
	}
	if fast.Bars.Empty() {
		return nil
	}

	// Evaluate each closed fast bar once.
	confirmTS := fast.Bars.Last().TS
	if !confirmTS.After(s.lastConfirmTS) {
		return nil
	}
	s.lastConfirmTS = confirmTS

	sig := s.cascade.Generate(slow, mid, fast, s.symbol, spec.Point)
	if sig == nil {
		return nil
	}
	s.met.SignalsTotal.WithLabelValues(string(sig.Side)).Inc()
	slog.Info("signal confirmed", append([]any{
		"side", sig.Side, "entry", sig.EntryPrice, "sl", sig.SLPrice, "tp", sig.TPPrice, "reason", sig.Reason,
	}, logger.LogWithCycle(ctx)...)...)
	s.pub.PublishSignal(ctx, *sig)

	lots := s.riskMgr.ComputeLotSize(spec, sig.SLPrice, sig.EntryPrice, acct.Balance)
	if lots == 0 {
		slog.Info("signal not tradable at current risk settings", logger.LogWithCycle(ctx)...)
		return nil
	}

	res, err := s.executor.Execute(ctx, *sig, lots)
	if err != nil {
		slog.Error("execution failed", append([]any{"err", err}, logger.LogWithCycle(ctx)...)...)
		return nil
	}
	s.met.TradesTotal.WithLabelValues(string(sig.Side)).Inc()
	s.tradesToday++
	s.notify(ctx, notification.TradeExecuted(*sig, lots, res))
	return nil
}

func (s *Service) fetchTimeframes(ctx context.Context) (slow, mid, fast strategy.Timeframe, err error) {
	tfs := s.params.Timeframes
	n := s.params.Loop.CandleCount

	for _, f := range []struct {
		name string
		dst  *strategy.Timeframe
	}{
		{tfs.Slow, &slow}, {tfs.Mid, &mid}, {tfs.Fast, &fast},
	} {
		series, ferr := s.terminal.Candles(ctx, s.symbol, f.name, n)
		if ferr != nil {
			err = fmt.Errorf("candles %s: %w", f.name, ferr)
			return
		}
		*f.dst = s.cascade.Annotate(series.Closed())
	}
	return
}

// trailPositions proposes and applies stop moves. Failures are logged
// and retried naturally on the next cycle.
func (s *Service) trailPositions(ctx context.Context, positions []model.Position, spec model.SymbolSpec) {
	if !s.trailing.Enabled() {
		return
	}
	for _, pos := range positions {
		mod, ok := s.trailing.Evaluate(pos, spec)
		if !ok {
			continue
		}
		if err := s.terminal.ModifyPositionStops(ctx, mod.Ticket, mod.NewSL, pos.TP); err != nil {
			slog.Warn("stop modification failed", "ticket", mod.Ticket, "new_sl", mod.NewSL, "err", err)
			continue
		}
		s.met.TrailingMods.Inc()
		slog.Info("stop trailed", "ticket", mod.Ticket, "new_sl", mod.NewSL)
		s.notify(ctx, notification.StopMoved(pos.Symbol, mod.Ticket, mod.NewSL))
	}
}

// maybeSendSummary sends one daily summary after the configured UTC
// hour and resets the per-day trade counter.
func (s *Service) maybeSendSummary(ctx context.Context) {
	now := time.Now().UTC()
	if now.Hour() < s.params.Loop.SummaryHourUTC || now.YearDay() == s.lastSummaryDay {
		return
	}
	s.lastSummaryDay = now.YearDay()

	acct, err := s.terminal.Account(ctx)
	if err != nil {
		slog.Warn("summary account fetch failed", "err", err)
		return
	}
	s.notify(ctx, notification.DailySummary(acct, s.riskMgr.Snapshot(), s.tradesToday))
	s.tradesToday = 0
}

func (s *Service) skip(reason string) {
	s.met.CyclesSkipped.WithLabelValues(reason).Inc()
}

func (s *Service) notify(ctx context.Context, a notification.Alert) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, a); err != nil {
		slog.Warn("notification failed", "title", a.Title, "err", err)
	}
}
