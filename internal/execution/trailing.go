package execution

import (
	"math"

	"fxbotv1/internal/model"
)

// TrailingConfig controls R-multiple based stop management. Both
// multiples scale a fixed "risk unit": a configured price distance,
// not the trade's true original stop distance — that distance is
// unrecoverable once the stop has moved.
type TrailingConfig struct {
	Enabled        bool    `yaml:"enabled"`
	ActivationRR   float64 `yaml:"activation_rr"`
	TrailingDistRR float64 `yaml:"trailing_dist_rr"`
}

// StopModification is a request to move a position's stop.
type StopModification struct {
	Ticket int64   `json:"ticket"`
	NewSL  float64 `json:"new_sl"`
}

// TrailingEvaluator inspects open positions and proposes stop moves.
// Stops only ever improve: strictly higher for LONG, strictly lower
// for SHORT. One proposal per position per evaluation; applying it is
// the caller's best-effort job.
type TrailingEvaluator struct {
	cfg TrailingConfig
	// riskUnitPoints is the risk unit expressed in points; multiplied
	// by the symbol's point size at evaluation time.
	riskUnitPoints float64
}

// NewTrailingEvaluator creates an evaluator. riskUnitPoints is the
// configured stop distance in points that serves as the risk unit.
func NewTrailingEvaluator(cfg TrailingConfig, riskUnitPoints float64) *TrailingEvaluator {
	return &TrailingEvaluator{cfg: cfg, riskUnitPoints: riskUnitPoints}
}

// Enabled reports whether trailing is switched on.
func (e *TrailingEvaluator) Enabled() bool { return e.cfg.Enabled }

// Evaluate returns a stop modification for the position, if one is
// due. Positions without an existing stop are left alone — there is
// no baseline to improve on.
func (e *TrailingEvaluator) Evaluate(pos model.Position, spec model.SymbolSpec) (StopModification, bool) {
	if !e.cfg.Enabled || pos.SL == 0 {
		return StopModification{}, false
	}

	riskUnit := e.riskUnitPoints * spec.Point
	if riskUnit <= 0 {
		return StopModification{}, false
	}

	if pos.UnrealizedMove() < e.cfg.ActivationRR*riskUnit {
		return StopModification{}, false
	}

	var candidate float64
	improves := false
	if pos.Side == model.SideLong {
		candidate = pos.PriceCurrent - e.cfg.TrailingDistRR*riskUnit
		improves = candidate > pos.SL
	} else {
		candidate = pos.PriceCurrent + e.cfg.TrailingDistRR*riskUnit
		improves = candidate < pos.SL
	}
	if !improves {
		return StopModification{}, false
	}

	return StopModification{Ticket: pos.Ticket, NewSL: round5(candidate)}, true
}

// round5 snaps a price to 5 decimal places, the finest quote precision
// the terminal accepts.
func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
