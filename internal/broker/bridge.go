// Package broker implements the MT5 bridge client. The bridge is a
// small HTTP/WebSocket sidecar running next to the terminal; this
// client implements every model port against it.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fxbotv1/internal/model"
)

// tickMaxAge is how long a streamed tick stays fresh enough to serve
// from cache before falling back to an HTTP fetch.
const tickMaxAge = 2 * time.Second

// Config holds bridge connection settings.
type Config struct {
	BaseURL string // e.g. http://127.0.0.1:5001
	WSURL   string // e.g. ws://127.0.0.1:5001/stream; empty disables streaming
	Timeout time.Duration
}

// Bridge is an HTTP/WS client for the terminal sidecar. It satisfies
// model.Terminal.
type Bridge struct {
	cfg        Config
	httpClient *http.Client

	mu       sync.Mutex
	lastTick map[string]model.Tick
	tickAt   map[string]time.Time

	// OnReconnect fires after each successful stream reconnect.
	OnReconnect func()
}

var _ model.Terminal = (*Bridge)(nil)

// New creates a bridge client.
func New(cfg Config) *Bridge {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Bridge{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		lastTick:   make(map[string]model.Tick),
		tickAt:     make(map[string]time.Time),
	}
}

// apiError is the bridge's error envelope: {"error": "..."}.
type apiError struct {
	Error string `json:"error"`
}

func (b *Bridge) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := b.cfg.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	return b.do(req, out)
}

func (b *Bridge) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return b.do(req, out)
}

func (b *Bridge) do(req *http.Request, out any) error {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("bridge: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("bridge: %s %s: %s", req.Method, req.URL.Path, apiErr.Error)
		}
		return fmt.Errorf("bridge: %s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("bridge: parse %s response: %w", req.URL.Path, err)
	}
	return nil
}

// Candles fetches the most recent n bars, ascending, forming bar last.
func (b *Bridge) Candles(ctx context.Context, symbol, tf string, n int) (model.Series, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("tf", tf)
	params.Set("count", strconv.Itoa(n))

	var out model.Series
	if err := b.get(ctx, "/candles", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tick returns the latest quote, preferring the streamed cache when it
// is fresh.
func (b *Bridge) Tick(ctx context.Context, symbol string) (model.Tick, error) {
	b.mu.Lock()
	cached, ok := b.lastTick[symbol]
	at := b.tickAt[symbol]
	b.mu.Unlock()
	if ok && time.Since(at) < tickMaxAge {
		return cached, nil
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	var out model.Tick
	if err := b.get(ctx, "/tick", params, &out); err != nil {
		return model.Tick{}, err
	}
	b.storeTick(out)
	return out, nil
}

// SymbolSpec fetches broker trading parameters.
func (b *Bridge) SymbolSpec(ctx context.Context, symbol string) (model.SymbolSpec, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	var out model.SymbolSpec
	if err := b.get(ctx, "/symbol", params, &out); err != nil {
		return model.SymbolSpec{}, err
	}
	return out, nil
}

// Account fetches the account snapshot.
func (b *Bridge) Account(ctx context.Context) (model.Account, error) {
	var out model.Account
	if err := b.get(ctx, "/account", nil, &out); err != nil {
		return model.Account{}, err
	}
	return out, nil
}

// OpenPositions lists open positions, optionally filtered by symbol.
func (b *Bridge) OpenPositions(ctx context.Context, symbol string) ([]model.Position, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	var out []model.Position
	if err := b.get(ctx, "/positions", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HistoryDeals fetches closed deals within [from, to).
func (b *Bridge) HistoryDeals(ctx context.Context, from, to time.Time) ([]model.Deal, error) {
	params := url.Values{}
	params.Set("from", from.UTC().Format(time.RFC3339))
	params.Set("to", to.UTC().Format(time.RFC3339))
	var out []model.Deal
	if err := b.get(ctx, "/history/deals", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PlaceMarketOrder submits a market order. A non-nil error means the
// request never reached the trade server; rejections come back in the
// result's retcode.
func (b *Bridge) PlaceMarketOrder(ctx context.Context, req model.OrderRequest) (model.OrderResult, error) {
	var out model.OrderResult
	if err := b.post(ctx, "/order", req, &out); err != nil {
		return model.OrderResult{}, err
	}
	return out, nil
}

// ModifyPositionStops adjusts SL/TP on an open position.
func (b *Bridge) ModifyPositionStops(ctx context.Context, ticket int64, sl, tp float64) error {
	payload := map[string]any{"ticket": ticket, "sl": sl, "tp": tp}
	var out model.OrderResult
	if err := b.post(ctx, "/position/modify", payload, &out); err != nil {
		return err
	}
	if !out.Accepted() {
		return fmt.Errorf("bridge: modify position %d: retcode=%d %s", ticket, out.Retcode, out.Comment)
	}
	return nil
}

func (b *Bridge) storeTick(t model.Tick) {
	b.mu.Lock()
	b.lastTick[t.Symbol] = t
	b.tickAt[t.Symbol] = time.Now()
	b.mu.Unlock()
}

// Run maintains the tick stream until ctx is cancelled, reconnecting
// with a fixed backoff. Without a WS URL it returns immediately; the
// Tick port then always goes over HTTP.
func (b *Bridge) Run(ctx context.Context) error {
	if b.cfg.WSURL == "" {
		log.Println("[bridge] no stream URL configured, ticks served over HTTP only")
		return nil
	}

	backoff := 5 * time.Second
	for {
		if err := b.streamOnce(ctx); err != nil {
			log.Printf("[bridge] stream disconnected: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (b *Bridge) streamOnce(ctx context.Context) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, b.cfg.WSURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial failed, status %s: %w", resp.Status, err)
		}
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()
	log.Printf("[bridge] tick stream connected to %s", b.cfg.WSURL)
	if b.OnReconnect != nil {
		b.OnReconnect()
	}

	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		var tick model.Tick
		if err := conn.ReadJSON(&tick); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if tick.Symbol == "" {
			continue
		}
		if tick.TS.IsZero() {
			tick.TS = time.Now().UTC()
		}
		b.storeTick(tick)
	}
}
