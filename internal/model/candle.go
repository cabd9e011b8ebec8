package model

import (
	"encoding/json"
	"time"
)

// Candle represents one OHLC bar for a (symbol, timeframe) pair.
// TS is the bar open time (UTC). Prices are quote-currency floats as
// delivered by the terminal.
type Candle struct {
	Symbol string    `json:"symbol"`
	TF     string    `json:"tf"` // e.g. "M15", "H1", "H4"
	TS     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
}

// Key returns "symbol:tf".
func (c *Candle) Key() string {
	return c.Symbol + ":" + c.TF
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Series is an ordered sequence of bars for one (symbol, timeframe):
// strictly ascending, unique timestamps, append-only from the terminal's
// point of view.
type Series []Candle

// Empty reports whether the series has no bars.
func (s Series) Empty() bool { return len(s) == 0 }

// Last returns the most recent bar. Callers must check Empty first.
func (s Series) Last() Candle { return s[len(s)-1] }

// Closed returns the series with the still-forming last bar removed.
// The terminal returns the forming bar at the tail; the signal cascade
// must only ever see fully closed bars.
func (s Series) Closed() Series {
	if len(s) == 0 {
		return s
	}
	return s[:len(s)-1]
}

// Closes returns the close column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Close
	}
	return out
}

// LowestLow returns the minimum low over the last n bars.
func (s Series) LowestLow(n int) float64 {
	if n > len(s) {
		n = len(s)
	}
	low := s[len(s)-n].Low
	for _, c := range s[len(s)-n:] {
		if c.Low < low {
			low = c.Low
		}
	}
	return low
}

// HighestHigh returns the maximum high over the last n bars.
func (s Series) HighestHigh(n int) float64 {
	if n > len(s) {
		n = len(s)
	}
	high := s[len(s)-n].High
	for _, c := range s[len(s)-n:] {
		if c.High > high {
			high = c.High
		}
	}
	return high
}
