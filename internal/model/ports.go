package model

import (
	"context"
	"time"
)

// ── Terminal Port Interfaces ──
// These interfaces decouple the decision core from the concrete terminal
// bridge implementation. The core treats every call as a synchronous,
// atomic operation; retries and reconnects belong to the implementation.

// CandleProvider fetches bar history.
type CandleProvider interface {
	// Candles returns the most recent n bars for symbol/tf in ascending
	// time order. The last bar may still be forming.
	Candles(ctx context.Context, symbol, tf string, n int) (Series, error)
}

// TickProvider fetches the latest quote.
type TickProvider interface {
	Tick(ctx context.Context, symbol string) (Tick, error)
}

// SpecProvider fetches broker trading parameters for a symbol.
type SpecProvider interface {
	SymbolSpec(ctx context.Context, symbol string) (SymbolSpec, error)
}

// AccountProvider fetches the account snapshot.
type AccountProvider interface {
	Account(ctx context.Context) (Account, error)
}

// PositionProvider lists open positions. An empty symbol lists all.
type PositionProvider interface {
	OpenPositions(ctx context.Context, symbol string) ([]Position, error)
}

// DealHistory fetches closed deals within [from, to) in time order.
type DealHistory interface {
	HistoryDeals(ctx context.Context, from, to time.Time) ([]Deal, error)
}

// OrderRequest describes a market order to be placed.
type OrderRequest struct {
	Symbol    string  `json:"symbol"`
	Side      Side    `json:"side"`
	Volume    float64 `json:"volume"`
	SL        float64 `json:"sl,omitempty"`
	TP        float64 `json:"tp,omitempty"`
	Deviation int     `json:"deviation"` // max slippage in points
	Comment   string  `json:"comment,omitempty"`
	Magic     int     `json:"magic"`
}

// Terminal trade-server return codes (MT5 numbering).
const (
	RetcodeRequote  = 10004
	RetcodePlaced   = 10008
	RetcodeDone     = 10009
	RetcodeNoMoney  = 10019
	RetcodePriceOff = 10021
)

// OrderResult is the terminal's response to an order request.
type OrderResult struct {
	Retcode int     `json:"retcode"`
	Ticket  int64   `json:"ticket"`
	Price   float64 `json:"price"`
	Comment string  `json:"comment"`
}

// Accepted reports whether the order was filled or placed.
func (r OrderResult) Accepted() bool {
	return r.Retcode == RetcodeDone || r.Retcode == RetcodePlaced
}

// Transient reports whether the rejection is worth retrying.
func (r OrderResult) Transient() bool {
	return r.Retcode == RetcodeRequote || r.Retcode == RetcodePriceOff
}

// OrderPlacer places market orders.
type OrderPlacer interface {
	PlaceMarketOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}

// StopModifier adjusts SL/TP on an open position. Passing 0 for sl or tp
// keeps the existing level.
type StopModifier interface {
	ModifyPositionStops(ctx context.Context, ticket int64, sl, tp float64) error
}

// Terminal aggregates every port the bot needs from the bridge.
type Terminal interface {
	CandleProvider
	TickProvider
	SpecProvider
	AccountProvider
	PositionProvider
	DealHistory
	OrderPlacer
	StopModifier
}
