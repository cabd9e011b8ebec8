// Package execution places orders for admitted signals and manages
// stops on open positions. It owns the bounded retry policy for
// transient trade-server rejections; everything above it treats order
// placement as a single call.
package execution

import (
	"context"
	"fmt"
	"log"
	"time"

	"fxbotv1/internal/model"
	"fxbotv1/internal/strategy"
)

// Config tunes order placement.
type Config struct {
	DeviationPoints int           `yaml:"deviation_points"` // max slippage
	Magic           int           `yaml:"magic"`            // EA identifier stamped on orders
	MaxRetries      int           `yaml:"max_retries"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
}

// DefaultConfig returns the standard execution settings.
func DefaultConfig() Config {
	return Config{
		DeviationPoints: 20,
		MaxRetries:      3,
		RetryBackoff:    time.Second,
	}
}

// Executor translates signals into market orders.
type Executor struct {
	cfg      Config
	terminal model.OrderPlacer
	journal  *Journal // nil disables journaling

	// OnRetry fires once per transient-rejection retry, for metrics.
	OnRetry func()
}

// NewExecutor creates an executor. journal may be nil.
func NewExecutor(cfg Config, terminal model.OrderPlacer, journal *Journal) *Executor {
	return &Executor{cfg: cfg, terminal: terminal, journal: journal}
}

// Execute places a market order for the signal at the given volume.
// Transient rejections (requote, price off) are retried with backoff
// up to MaxRetries; permanent rejections fail immediately.
func (e *Executor) Execute(ctx context.Context, sig strategy.Signal, lots float64) (model.OrderResult, error) {
	req := model.OrderRequest{
		Symbol:    sig.Symbol,
		Side:      sig.Side,
		Volume:    lots,
		SL:        sig.SLPrice,
		TP:        sig.TPPrice,
		Deviation: e.cfg.DeviationPoints,
		Comment:   "rsi-cascade " + sig.Reason,
		Magic:     e.cfg.Magic,
	}

	log.Printf("[executor] placing %s %s lots=%.2f entry≈%.5f sl=%.5f tp=%.5f",
		sig.Side, sig.Symbol, lots, sig.EntryPrice, sig.SLPrice, sig.TPPrice)

	var last model.OrderResult
	for attempt := 1; attempt <= e.cfg.MaxRetries; attempt++ {
		res, err := e.terminal.PlaceMarketOrder(ctx, req)
		if err != nil {
			return model.OrderResult{}, fmt.Errorf("executor: place order: %w", err)
		}
		last = res

		if res.Accepted() {
			log.Printf("[executor] order placed: ticket=%d price=%.5f", res.Ticket, res.Price)
			if e.journal != nil {
				if jerr := e.journal.RecordTrade(sig, lots, res); jerr != nil {
					log.Printf("[executor] journal write failed: %v", jerr)
				}
			}
			return res, nil
		}

		if !res.Transient() {
			return res, fmt.Errorf("executor: order rejected: retcode=%d %s", res.Retcode, res.Comment)
		}

		log.Printf("[executor] transient rejection (retcode=%d %s), attempt %d/%d",
			res.Retcode, res.Comment, attempt, e.cfg.MaxRetries)
		if e.OnRetry != nil {
			e.OnRetry()
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-time.After(e.cfg.RetryBackoff):
		}
	}

	return last, fmt.Errorf("executor: order not filled after %d attempts: retcode=%d", e.cfg.MaxRetries, last.Retcode)
}
