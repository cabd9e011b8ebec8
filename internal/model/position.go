package model

import "time"

// Side is the direction of a signal or position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Opposite returns the mirrored direction.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// Position is an open trade as reported by the terminal.
type Position struct {
	Ticket       int64   `json:"ticket"`
	Symbol       string  `json:"symbol"`
	Side         Side    `json:"side"`
	Volume       float64 `json:"volume"`
	PriceOpen    float64 `json:"price_open"`
	SL           float64 `json:"sl"`
	TP           float64 `json:"tp"`
	PriceCurrent float64 `json:"price_current"`
}

// UnrealizedMove returns the signed price move since entry: positive when
// the position is in profit, regardless of direction.
func (p Position) UnrealizedMove() float64 {
	if p.Side == SideShort {
		return p.PriceOpen - p.PriceCurrent
	}
	return p.PriceCurrent - p.PriceOpen
}

// Deal is a closed-deal history record from the terminal.
// Profit, swap and commission are account-currency amounts.
type Deal struct {
	Ticket     int64     `json:"ticket"`
	Time       time.Time `json:"time"`
	Profit     float64   `json:"profit"`
	Swap       float64   `json:"swap"`
	Commission float64   `json:"commission"`
}

// Net returns the deal's net P&L: profit + swap + commission.
// Entry and administrative deals net to zero and carry no P&L information.
func (d Deal) Net() float64 {
	return d.Profit + d.Swap + d.Commission
}

// Account is a snapshot of the trading account.
type Account struct {
	Balance float64 `json:"balance"`
	Equity  float64 `json:"equity"`
}
