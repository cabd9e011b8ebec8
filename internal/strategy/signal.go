// Package strategy implements the three-timeframe signal cascade.
//
// The cascade reads indicator-annotated bar series on a slow (bias),
// mid (zone) and fast (confirmation) timeframe and emits at most one
// Signal per evaluation. It holds no state between calls; bar-dedup is
// the caller's job via the confirming-bar timestamp on the Signal.
package strategy

import (
	"encoding/json"
	"fmt"
	"time"

	"fxbotv1/internal/model"
)

// Signal is an immutable trade signal produced by the cascade.
type Signal struct {
	Symbol     string     `json:"symbol"`
	Side       model.Side `json:"side"`
	EntryPrice float64    `json:"entry_price"`
	SLPrice    float64    `json:"sl_price"`
	TPPrice    float64    `json:"tp_price"`
	Confidence float64    `json:"confidence"`
	Reason     string     `json:"reason"`
	// ConfirmedAt is the open time of the confirming fast-TF bar.
	// Callers use it to avoid re-evaluating the same closed bar.
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// String renders a compact one-line form for logs.
func (s Signal) String() string {
	return fmt.Sprintf("%s %s entry=%.5f sl=%.5f tp=%.5f (%s)",
		s.Side, s.Symbol, s.EntryPrice, s.SLPrice, s.TPPrice, s.Reason)
}

// JSON returns the JSON-encoded signal.
func (s Signal) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
