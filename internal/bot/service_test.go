package bot

import (
	"context"
	"testing"
	"time"

	"fxbotv1/config"
	"fxbotv1/internal/calendar"
	"fxbotv1/internal/execution"
	"fxbotv1/internal/metrics"
	"fxbotv1/internal/model"
	"fxbotv1/internal/notification"
	"fxbotv1/internal/risk"
	"fxbotv1/internal/session"
)

// Prometheus registration is process-global, so all tests share one set.
var testMetrics = metrics.NewMetrics()

// fakeTerminal scripts every port of the bridge.
type fakeTerminal struct {
	account   model.Account
	spec      model.SymbolSpec
	positions []model.Position
	series    map[string]model.Series
	deals     []model.Deal
	tick      model.Tick

	candleCalls int
	modCalls    []int64
	orders      []model.OrderRequest
}

func (f *fakeTerminal) Candles(ctx context.Context, symbol, tf string, n int) (model.Series, error) {
	f.candleCalls++
	return f.series[tf], nil
}
func (f *fakeTerminal) Tick(ctx context.Context, symbol string) (model.Tick, error) {
	return f.tick, nil
}
func (f *fakeTerminal) SymbolSpec(ctx context.Context, symbol string) (model.SymbolSpec, error) {
	return f.spec, nil
}
func (f *fakeTerminal) Account(ctx context.Context) (model.Account, error) {
	return f.account, nil
}
func (f *fakeTerminal) OpenPositions(ctx context.Context, symbol string) ([]model.Position, error) {
	return f.positions, nil
}
func (f *fakeTerminal) HistoryDeals(ctx context.Context, from, to time.Time) ([]model.Deal, error) {
	return f.deals, nil
}
func (f *fakeTerminal) PlaceMarketOrder(ctx context.Context, req model.OrderRequest) (model.OrderResult, error) {
	f.orders = append(f.orders, req)
	return model.OrderResult{Retcode: model.RetcodeDone, Ticket: 1, Price: req.SL}, nil
}
func (f *fakeTerminal) ModifyPositionStops(ctx context.Context, ticket int64, sl, tp float64) error {
	f.modCalls = append(f.modCalls, ticket)
	return nil
}

type recordingNotifier struct {
	alerts []notification.Alert
}

func (r *recordingNotifier) Send(ctx context.Context, a notification.Alert) error {
	r.alerts = append(r.alerts, a)
	return nil
}

func newTestService(term *fakeTerminal, params config.Params) (*Service, *recordingNotifier) {
	riskMgr := risk.NewManager(params.Risk, term)
	notifier := &recordingNotifier{}
	d := Deps{
		Terminal: term,
		RiskMgr:  riskMgr,
		Executor: execution.NewExecutor(params.Execution.ToConfig(), term, nil),
		Trailing: execution.NewTrailingEvaluator(params.Trailing, params.Strategy.SLPoints),
		News:     calendar.NewFilter(calendar.Config{Enabled: false}),
		Notifier: notifier,
		Metrics:  testMetrics,
		Health:   metrics.NewHealthStatus(),
	}
	return NewService("EURUSD", params, d), notifier
}

func defaultTestParams() config.Params {
	p := config.DefaultParams()
	p.Session = session.Config{StartHour: 0, EndHour: 0} // always open
	p.Filters.MaxSpreadPoints = 0                        // spread check off
	return p
}

func flatSpec() model.SymbolSpec {
	return model.SymbolSpec{
		Symbol: "EURUSD", Point: 0.00001, TickSize: 0.00001, TickValue: 1,
		VolumeStep: 0.01, VolumeMin: 0.01, VolumeMax: 100,
	}
}

func TestCycle_HaltSkipsEntriesButStillTrails(t *testing.T) {
	term := &fakeTerminal{
		account: model.Account{Balance: 0}, // zero balance trips the breaker
		spec:    flatSpec(),
		positions: []model.Position{{
			Ticket: 11, Symbol: "EURUSD", Side: model.SideLong,
			PriceOpen: 1.08000, PriceCurrent: 1.09000, SL: 1.07500,
		}},
	}
	svc, notifier := newTestService(term, defaultTestParams())

	if err := svc.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	if len(term.modCalls) != 1 || term.modCalls[0] != 11 {
		t.Fatalf("trailing must run while halted, mods = %v", term.modCalls)
	}
	if term.candleCalls != 0 {
		t.Fatal("halted cycle must not fetch candles")
	}

	// The halt alert goes out exactly once.
	halts := 0
	for _, a := range notifier.alerts {
		if a.Title == "Trading halted" {
			halts++
		}
	}
	if halts != 1 {
		t.Fatalf("expected 1 halt alert, got %d", halts)
	}

	if err := svc.cycle(context.Background()); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	halts = 0
	for _, a := range notifier.alerts {
		if a.Title == "Trading halted" {
			halts++
		}
	}
	if halts != 1 {
		t.Fatalf("halt alert must not repeat, got %d", halts)
	}
}

func TestCycle_OpenPositionBlocksNewEntries(t *testing.T) {
	term := &fakeTerminal{
		account: model.Account{Balance: 10000},
		spec:    flatSpec(),
		positions: []model.Position{{
			Ticket: 5, Symbol: "EURUSD", Side: model.SideShort,
			PriceOpen: 1.08, PriceCurrent: 1.08, SL: 1.09,
		}},
	}
	svc, _ := newTestService(term, defaultTestParams())

	if err := svc.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if term.candleCalls != 0 {
		t.Fatal("open position must short-circuit before candle fetch")
	}
}

func TestCycle_SessionGate(t *testing.T) {
	params := defaultTestParams()
	// A window that excludes every hour except one far from now.
	h := (time.Now().UTC().Hour() + 2) % 24
	params.Session = session.Config{StartHour: h, EndHour: (h + 1) % 24}

	term := &fakeTerminal{account: model.Account{Balance: 10000}, spec: flatSpec()}
	svc, _ := newTestService(term, params)

	if err := svc.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if term.candleCalls != 0 {
		t.Fatal("outside the session window no candles should be fetched")
	}
}

func TestCycle_NoSignalOnQuietMarket(t *testing.T) {
	// Flat closes produce no crossover anywhere; the cycle must fetch
	// all three timeframes and come out empty-handed.
	flat := make(model.Series, 120)
	base := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	for i := range flat {
		flat[i] = model.Candle{
			Symbol: "EURUSD", TF: "M15", TS: base.Add(time.Duration(i) * 15 * time.Minute),
			Open: 1.08, High: 1.081, Low: 1.079, Close: 1.08,
		}
	}

	params := defaultTestParams()
	term := &fakeTerminal{
		account: model.Account{Balance: 10000},
		spec:    flatSpec(),
		series: map[string]model.Series{
			params.Timeframes.Slow: flat,
			params.Timeframes.Mid:  flat,
			params.Timeframes.Fast: flat,
		},
	}
	svc, _ := newTestService(term, params)

	if err := svc.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if term.candleCalls != 3 {
		t.Fatalf("expected 3 timeframe fetches, got %d", term.candleCalls)
	}
	if len(term.orders) != 0 {
		t.Fatalf("flat market must not trade, orders = %v", term.orders)
	}

	// Same confirming bar again: dedup keeps the cascade from re-running,
	// but the fetches still happen.
	if err := svc.cycle(context.Background()); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if len(term.orders) != 0 {
		t.Fatal("no orders expected")
	}
}

func TestTrailPositions_AppliesOnlyImprovements(t *testing.T) {
	params := defaultTestParams()
	term := &fakeTerminal{spec: flatSpec()}
	svc, _ := newTestService(term, params)

	positions := []model.Position{
		// In profit past activation: 1R = 500 points = 0.005.
		{Ticket: 1, Symbol: "EURUSD", Side: model.SideLong, PriceOpen: 1.08, PriceCurrent: 1.09, SL: 1.075},
		// Barely in profit: below activation, untouched.
		{Ticket: 2, Symbol: "EURUSD", Side: model.SideLong, PriceOpen: 1.08, PriceCurrent: 1.081, SL: 1.075},
	}
	svc.trailPositions(context.Background(), positions, flatSpec())

	if len(term.modCalls) != 1 || term.modCalls[0] != 1 {
		t.Fatalf("expected only ticket 1 trailed, got %v", term.modCalls)
	}
}
