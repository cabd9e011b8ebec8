// Package config loads configuration: infrastructure settings from
// environment variables and trading parameters from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"fxbotv1/internal/calendar"
	"fxbotv1/internal/execution"
	"fxbotv1/internal/risk"
	"fxbotv1/internal/session"
	"fxbotv1/internal/strategy"
)

// Timeframes names the three cascade inputs, largest first.
type Timeframes struct {
	Slow string `yaml:"slow"`
	Mid  string `yaml:"mid"`
	Fast string `yaml:"fast"`
}

// ExecutionParams is the YAML shape of execution settings; durations
// are plain seconds so the file stays hand-editable.
type ExecutionParams struct {
	DeviationPoints int `yaml:"deviation_points"`
	Magic           int `yaml:"magic"`
	MaxRetries      int `yaml:"max_retries"`
	RetryBackoffSec int `yaml:"retry_backoff_sec"`
}

// ToConfig converts to the executor's config.
func (p ExecutionParams) ToConfig() execution.Config {
	return execution.Config{
		DeviationPoints: p.DeviationPoints,
		Magic:           p.Magic,
		MaxRetries:      p.MaxRetries,
		RetryBackoff:    time.Duration(p.RetryBackoffSec) * time.Second,
	}
}

// NewsParams is the YAML shape of the news filter settings.
type NewsParams struct {
	Enabled        bool   `yaml:"enabled"`
	FeedURL        string `yaml:"feed_url"`
	BlockBeforeMin int    `yaml:"block_before_min"`
	BlockAfterMin  int    `yaml:"block_after_min"`
	MinImpact      string `yaml:"min_impact"`
}

// ToConfig converts to the calendar filter's config.
func (p NewsParams) ToConfig() calendar.Config {
	cfg := calendar.DefaultConfig()
	cfg.Enabled = p.Enabled
	if p.FeedURL != "" {
		cfg.FeedURL = p.FeedURL
	}
	cfg.BlockBefore = time.Duration(p.BlockBeforeMin) * time.Minute
	cfg.BlockAfter = time.Duration(p.BlockAfterMin) * time.Minute
	if p.MinImpact != "" {
		cfg.MinImpact = p.MinImpact
	}
	return cfg
}

// FilterParams holds the remaining entry filters.
type FilterParams struct {
	// MaxSpreadPoints rejects entries when the live spread exceeds this
	// many points. 0 disables the check.
	MaxSpreadPoints float64 `yaml:"max_spread_points"`
}

// LoopParams tunes the orchestrator's timers.
type LoopParams struct {
	PollIntervalSec     int `yaml:"poll_interval_sec"`
	CandleCount         int `yaml:"candle_count"`
	RiskSyncIntervalMin int `yaml:"risk_sync_interval_min"`
	HeartbeatHours      int `yaml:"heartbeat_hours"`
	SummaryHourUTC      int `yaml:"summary_hour_utc"`
}

// Params is the full YAML parameter file.
type Params struct {
	Timeframes Timeframes               `yaml:"timeframes"`
	Strategy   strategy.Config          `yaml:"strategy"`
	Risk       risk.Config              `yaml:"risk"`
	Trailing   execution.TrailingConfig `yaml:"trailing"`
	Execution  ExecutionParams          `yaml:"execution"`
	Session    session.Config           `yaml:"session"`
	News       NewsParams               `yaml:"news"`
	Filters    FilterParams             `yaml:"filters"`
	Loop       LoopParams               `yaml:"loop"`
}

// DefaultParams returns a complete working parameter set.
func DefaultParams() Params {
	return Params{
		Timeframes: Timeframes{Slow: "H4", Mid: "H1", Fast: "M15"},
		Strategy:   strategy.DefaultConfig(),
		Risk:       risk.DefaultConfig(),
		Trailing: execution.TrailingConfig{
			Enabled:        true,
			ActivationRR:   1.0,
			TrailingDistRR: 0.5,
		},
		Execution: ExecutionParams{
			DeviationPoints: 20,
			Magic:           271828,
			MaxRetries:      3,
			RetryBackoffSec: 1,
		},
		Session: session.DefaultConfig(),
		News: NewsParams{
			Enabled:        true,
			BlockBeforeMin: 30,
			BlockAfterMin:  30,
			MinImpact:      "High",
		},
		Filters: FilterParams{MaxSpreadPoints: 30},
		Loop: LoopParams{
			PollIntervalSec:     30,
			CandleCount:         200,
			RiskSyncIntervalMin: 15,
			HeartbeatHours:      6,
			SummaryHourUTC:      21,
		},
	}
}

// LoadParams reads the YAML parameter file over the defaults. A missing
// file returns the defaults unchanged.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("params: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("params: parse %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("params: %s: %w", path, err)
	}
	return p, nil
}

// Validate rejects parameter combinations the bot cannot run with.
func (p Params) Validate() error {
	if p.Timeframes.Slow == "" || p.Timeframes.Mid == "" || p.Timeframes.Fast == "" {
		return fmt.Errorf("all three timeframes must be set")
	}
	ind := p.Strategy.Indicators
	if ind.RSIPeriod <= 0 || ind.WMAPeriod <= 0 || ind.EMAPeriod <= 0 || ind.ADXPeriod <= 0 {
		return fmt.Errorf("indicator periods must be positive")
	}
	if p.Strategy.RSIUpper <= p.Strategy.RSILower {
		return fmt.Errorf("rsi_upper (%.1f) must exceed rsi_lower (%.1f)",
			p.Strategy.RSIUpper, p.Strategy.RSILower)
	}
	if m := p.Strategy.SLMethod; m != strategy.SLMethodSwing && m != strategy.SLMethodFixed {
		return fmt.Errorf("unknown sl_method %q", m)
	}
	if p.Strategy.TPRewardRatio <= 0 {
		return fmt.Errorf("tp_rr must be positive")
	}
	if p.Risk.RiskPercentPerTrade <= 0 || p.Risk.RiskPercentPerTrade > 100 {
		return fmt.Errorf("risk_percent_per_trade %.2f out of range", p.Risk.RiskPercentPerTrade)
	}
	if p.Risk.MaxDailyLossPercent <= 0 || p.Risk.MaxConsecutiveLosses <= 0 {
		return fmt.Errorf("daily-loss and consecutive-loss limits must be positive")
	}
	if p.Trailing.Enabled && (p.Trailing.ActivationRR <= 0 || p.Trailing.TrailingDistRR <= 0) {
		return fmt.Errorf("trailing multiples must be positive when trailing is enabled")
	}
	if p.Loop.PollIntervalSec <= 0 || p.Loop.CandleCount <= 0 {
		return fmt.Errorf("loop poll interval and candle count must be positive")
	}
	// These feed time.NewTicker, which panics on non-positive durations.
	if p.Loop.RiskSyncIntervalMin <= 0 || p.Loop.HeartbeatHours <= 0 {
		return fmt.Errorf("risk sync and heartbeat intervals must be positive")
	}
	// The frame needs enough closed bars for the slowest warm-up:
	// RSI + WMA stacking dominates.
	if need := ind.RSIPeriod + ind.WMAPeriod; p.Loop.CandleCount <= need {
		return fmt.Errorf("candle_count %d too small for indicator warm-up (need > %d)",
			p.Loop.CandleCount, need)
	}
	return nil
}
