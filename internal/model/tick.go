package model

import "time"

// Tick is the latest quote for a symbol.
type Tick struct {
	Symbol string    `json:"symbol"`
	TS     time.Time `json:"ts"`
	Ask    float64   `json:"ask"`
	Bid    float64   `json:"bid"`
	Last   float64   `json:"last"`
}

// SpreadPoints returns the ask-bid spread expressed in points.
// Returns 0 when point is not positive.
func (t Tick) SpreadPoints(point float64) float64 {
	if point <= 0 {
		return 0
	}
	return (t.Ask - t.Bid) / point
}
