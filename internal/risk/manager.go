// Package risk implements the circuit breaker and position-sizing
// engine. A single Manager instance owns the process-lifetime risk
// ledger (daily loss, consecutive losses, halt latch); the scheduler
// must serialize evaluation cycles so the ledger has one writer.
package risk

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"fxbotv1/internal/model"
)

// Config holds the circuit-breaker and sizing thresholds.
type Config struct {
	RiskPercentPerTrade  float64 `yaml:"risk_percent_per_trade"`
	MaxDailyLossPercent  float64 `yaml:"max_daily_loss_percent"`
	MaxConsecutiveLosses int     `yaml:"max_consecutive_losses"`
}

// DefaultConfig returns conservative defaults.
func DefaultConfig() Config {
	return Config{
		RiskPercentPerTrade:  1.0,
		MaxDailyLossPercent:  5.0,
		MaxConsecutiveLosses: 3,
	}
}

// State is a read-only snapshot of the ledger, for metrics and
// publishing.
type State struct {
	DailyLoss         float64 `json:"daily_loss"`
	ConsecutiveLosses int     `json:"consecutive_losses"`
	HaltTrading       bool    `json:"halt_trading"`
}

// Manager validates trade admission and computes position size.
//
// The ledger has two update paths: SyncDailyStats replaces it from
// broker history (authoritative, idempotent) and UpdateMetrics adjusts
// it incrementally after a closed trade. Between two syncs the same
// deal can be counted by both paths; the next sync reconciles.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	history model.DealHistory
	now     func() time.Time

	dailyLoss         float64
	consecutiveLosses int
	haltTrading       bool
}

// NewManager creates a Manager reading closed deals from history.
func NewManager(cfg Config, history model.DealHistory) *Manager {
	return &Manager{cfg: cfg, history: history, now: time.Now}
}

// CheckSafety evaluates the circuit breakers in order; the first
// breach latches the halt flag. Once latched every subsequent call
// denies unconditionally — even if balance recovers — until the
// process is restarted.
func (m *Manager) CheckSafety(balance float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkSafetyLocked(balance)
}

func (m *Manager) checkSafetyLocked(balance float64) bool {
	if m.haltTrading {
		return false
	}

	if balance <= 0 {
		log.Printf("[risk] account balance %.2f, halting trading", balance)
		m.haltTrading = true
		return false
	}

	maxDailyLoss := balance * m.cfg.MaxDailyLossPercent / 100.0
	if m.dailyLoss >= maxDailyLoss {
		log.Printf("[risk] max daily loss reached (%.2f >= %.2f), halting trading", m.dailyLoss, maxDailyLoss)
		m.haltTrading = true
		return false
	}

	if m.consecutiveLosses >= m.cfg.MaxConsecutiveLosses {
		log.Printf("[risk] max consecutive losses reached (%d), halting trading", m.consecutiveLosses)
		m.haltTrading = true
		return false
	}

	return true
}

// SyncDailyStats rebuilds the ledger from the broker's closed deals for
// the current local calendar day. Replaces the tracked values rather
// than adding to them; repeated calls against unchanged history yield
// identical results.
func (m *Manager) SyncDailyStats(ctx context.Context) error {
	now := m.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	deals, err := m.history.HistoryDeals(ctx, dayStart, now)
	if err != nil {
		return err
	}

	net := 0.0
	streak := 0
	for _, d := range deals {
		n := d.Net()
		if n == 0 {
			// Entry and administrative deals carry no P&L.
			continue
		}
		net += n
		if n < 0 {
			streak++
		} else {
			streak = 0
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if net < 0 {
		m.dailyLoss = math.Abs(net)
		m.consecutiveLosses = streak
	} else {
		// A net-positive day is a clean slate.
		m.dailyLoss = 0
		m.consecutiveLosses = 0
	}
	log.Printf("[risk] synced daily stats: daily_loss=%.2f consecutive_losses=%d (%d deals)",
		m.dailyLoss, m.consecutiveLosses, len(deals))
	return nil
}

// UpdateMetrics applies one closed trade's P&L to the ledger. A loss
// grows the daily loss and the streak; any non-loss shrinks the daily
// loss (floored at zero) and resets the streak.
func (m *Manager) UpdateMetrics(profit float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if profit < 0 {
		m.dailyLoss += math.Abs(profit)
		m.consecutiveLosses++
		return
	}
	m.dailyLoss = math.Max(0, m.dailyLoss-profit)
	m.consecutiveLosses = 0
}

// ComputeLotSize sizes a position so the stop-loss distance risks the
// configured percentage of balance, using the broker's tick economics.
// Returns 0 when the risk state is unsafe, the stop distance is zero,
// or the computed size falls below the minimum tradable volume. Sizes
// are quantized down to the volume step — never up — and clamped to
// the maximum.
func (m *Manager) ComputeLotSize(spec model.SymbolSpec, slPrice, entryPrice, balance float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.checkSafetyLocked(balance) {
		return 0
	}

	priceDiff := math.Abs(entryPrice - slPrice)
	if priceDiff == 0 {
		return 0
	}
	if spec.TickSize <= 0 {
		log.Printf("[risk] %s: tick size %.5f unusable, refusing to size", spec.Symbol, spec.TickSize)
		return 0
	}

	riskAmount := balance * m.cfg.RiskPercentPerTrade / 100.0

	// Loss on 1.0 lot if the stop is hit, in account currency.
	lossPerLot := priceDiff / spec.TickSize * spec.TickValue
	if lossPerLot == 0 {
		return 0
	}

	lots := riskAmount / lossPerLot

	// Quantize down: under-risking is the safe direction.
	if spec.VolumeStep > 0 {
		lots = math.Floor(lots/spec.VolumeStep) * spec.VolumeStep
	}

	if lots < spec.VolumeMin {
		log.Printf("[risk] %s: computed lot %.4f below minimum %.2f, skipping", spec.Symbol, lots, spec.VolumeMin)
		return 0
	}
	if lots > spec.VolumeMax {
		lots = spec.VolumeMax
	}

	return math.Round(lots*100) / 100
}

// Snapshot returns the current ledger values.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{
		DailyLoss:         m.dailyLoss,
		ConsecutiveLosses: m.consecutiveLosses,
		HaltTrading:       m.haltTrading,
	}
}
