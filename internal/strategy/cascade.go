package strategy

import (
	"math"

	"fxbotv1/internal/indicator"
	"fxbotv1/internal/model"
)

// Stop-loss construction methods.
const (
	SLMethodSwing = "swing"
	SLMethodFixed = "fixed"
)

// Config holds all cascade tuning parameters.
type Config struct {
	Indicators indicator.Config `yaml:",inline"`

	// ADXThreshold gates the fast TF: below it the market is chopping
	// and no signal is evaluated. 0 disables the filter outright.
	ADXThreshold float64 `yaml:"adx_threshold"`

	// Bias thresholds on the slow TF.
	RSIUpper float64 `yaml:"rsi_upper"`
	RSILower float64 `yaml:"rsi_lower"`

	// ZoneTolerance is the max |RSI-WMA| distance on the mid TF.
	ZoneTolerance float64 `yaml:"tf2_zone_tolerance"`

	SLMethod      string  `yaml:"sl_method"` // "swing" or "fixed"
	SwingLookback int     `yaml:"swing_lookback"`
	SLPoints      float64 `yaml:"sl_points"`
	TPRewardRatio float64 `yaml:"tp_rr"`
}

// DefaultConfig returns the standard parameter set.
func DefaultConfig() Config {
	return Config{
		Indicators: indicator.Config{
			RSIPeriod: 14,
			WMAPeriod: 45,
			EMAPeriod: 9,
			ADXPeriod: 14,
		},
		ADXThreshold:  25,
		RSIUpper:      75,
		RSILower:      25,
		ZoneTolerance: 5,
		SLMethod:      SLMethodSwing,
		SwingLookback: 5,
		SLPoints:      500,
		TPRewardRatio: 1.5,
	}
}

// Timeframe pairs a closed-bar series with its indicator frame.
type Timeframe struct {
	Bars model.Series
	Ind  indicator.Frame
}

// last returns the indicator row of the latest bar.
func (tf Timeframe) last() indicator.Row {
	return tf.Ind.At(tf.Ind.Len() - 1)
}

// Cascade evaluates the three-timeframe entry logic. Stateless across
// calls — every evaluation starts from the inputs alone.
type Cascade struct {
	cfg Config
}

// NewCascade creates a cascade with the given config.
func NewCascade(cfg Config) *Cascade {
	return &Cascade{cfg: cfg}
}

// Annotate computes the indicator frame for a closed-bar series.
func (c *Cascade) Annotate(bars model.Series) Timeframe {
	return Timeframe{Bars: bars, Ind: indicator.ComputeFrame(bars, c.cfg.Indicators)}
}

// Generate runs the cascade over the three timeframes and returns a
// signal, or nil when any stage rejects. The caller must pass only
// fully closed bars; point is the symbol's price increment for the
// fixed SL method (0 when unknown — a coarse fallback is derived from
// the entry price magnitude).
func (c *Cascade) Generate(slow, mid, fast Timeframe, symbol string, point float64) *Signal {
	if slow.Bars.Empty() || mid.Bars.Empty() || len(fast.Bars) < 2 {
		return nil
	}

	// Chop filter: only active when ADX is out of warm-up on the
	// latest fast bar; undefined passes through.
	if adx := fast.last().ADX; adx.Valid && adx.V < c.cfg.ADXThreshold {
		return nil
	}

	bias, ok := c.bias(slow)
	if !ok {
		return nil
	}
	if !c.inZone(mid, bias) {
		return nil
	}
	reason, ok := c.confirm(fast, bias)
	if !ok {
		return nil
	}

	confirming := fast.Bars.Last()
	entry := confirming.Close
	sl := c.stopLoss(fast.Bars, bias, entry, point)

	dist := math.Abs(entry - sl)
	if dist == 0 {
		// Zero stop distance: unusable for sizing, treat as no signal.
		return nil
	}

	tp := entry + dist*c.cfg.TPRewardRatio
	if bias == model.SideShort {
		tp = entry - dist*c.cfg.TPRewardRatio
	}

	return &Signal{
		Symbol:      symbol,
		Side:        bias,
		EntryPrice:  entry,
		SLPrice:     sl,
		TPPrice:     tp,
		Confidence:  0.8,
		Reason:      reason,
		ConfirmedAt: confirming.TS,
	}
}

// bias resolves the slow-TF direction. It never returns neutral: when
// RSI sits between the extreme thresholds it falls back to RSI vs WMA.
// Returns ok=false only when a required value is still warming up.
func (c *Cascade) bias(slow Timeframe) (model.Side, bool) {
	row := slow.last()
	if !row.RSI.Valid {
		return "", false
	}
	switch {
	case row.RSI.V >= c.cfg.RSIUpper:
		return model.SideLong, true
	case row.RSI.V <= c.cfg.RSILower:
		return model.SideShort, true
	}
	if !row.RSIWMA.Valid {
		return "", false
	}
	if row.RSI.V > row.RSIWMA.V {
		return model.SideLong, true
	}
	return model.SideShort, true
}

// inZone checks the mid-TF pullback condition: RSI near its WMA, or
// inside the direction-specific band. The bands are intentionally
// asymmetric: LONG [40,55], SHORT [45,60].
func (c *Cascade) inZone(mid Timeframe, bias model.Side) bool {
	row := mid.last()
	if !row.RSI.Valid {
		return false
	}
	if row.RSIWMA.Valid && math.Abs(row.RSI.V-row.RSIWMA.V) <= c.cfg.ZoneTolerance {
		return true
	}
	if bias == model.SideLong {
		return row.RSI.V >= 40 && row.RSI.V <= 55
	}
	return row.RSI.V >= 45 && row.RSI.V <= 60
}

// confirm looks for a directional crossover between the previous and
// current closed fast-TF bars: EMA crossing the WMA, or RSI crossing
// the WMA. A crossover on any earlier bar pair does not count.
func (c *Cascade) confirm(fast Timeframe, bias model.Side) (string, bool) {
	n := fast.Ind.Len()
	curr, prev := fast.Ind.At(n-1), fast.Ind.At(n-2)

	emaOK := prev.RSIEMA.Valid && prev.RSIWMA.Valid && curr.RSIEMA.Valid && curr.RSIWMA.Valid
	rsiOK := prev.RSI.Valid && prev.RSIWMA.Valid && curr.RSI.Valid && curr.RSIWMA.Valid

	if bias == model.SideLong {
		if emaOK && prev.RSIEMA.V <= prev.RSIWMA.V && curr.RSIEMA.V > curr.RSIWMA.V {
			return "ema_cross", true
		}
		if rsiOK && prev.RSI.V <= prev.RSIWMA.V && curr.RSI.V > curr.RSIWMA.V {
			return "rsi_cross", true
		}
		return "", false
	}

	if emaOK && prev.RSIEMA.V >= prev.RSIWMA.V && curr.RSIEMA.V < curr.RSIWMA.V {
		return "ema_cross", true
	}
	if rsiOK && prev.RSI.V >= prev.RSIWMA.V && curr.RSI.V < curr.RSIWMA.V {
		return "rsi_cross", true
	}
	return "", false
}

// stopLoss builds the protective stop for the given direction.
func (c *Cascade) stopLoss(fast model.Series, bias model.Side, entry, point float64) float64 {
	if c.cfg.SLMethod == SLMethodSwing {
		if bias == model.SideLong {
			return fast.LowestLow(c.cfg.SwingLookback)
		}
		return fast.HighestHigh(c.cfg.SwingLookback)
	}

	if point <= 0 {
		point = fallbackPoint(entry)
	}
	dist := c.cfg.SLPoints * point
	if bias == model.SideLong {
		return entry - dist
	}
	return entry + dist
}

// fallbackPoint guesses a price increment from the entry magnitude when
// the broker spec is unavailable: indices and crypto quote in whole or
// hundredth units, forex in fractional pips.
func fallbackPoint(entry float64) float64 {
	switch {
	case entry > 20000:
		return 1.0
	case entry > 500:
		return 0.01
	case entry > 20:
		return 0.001
	default:
		return 0.00001
	}
}
