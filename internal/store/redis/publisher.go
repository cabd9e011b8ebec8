// Package redis publishes bot state for external consumers (dashboard,
// ad-hoc redis-cli inspection). Everything here is best-effort: a Redis
// outage must never stall an evaluation cycle.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"fxbotv1/internal/risk"
	"fxbotv1/internal/strategy"
)

const (
	signalStream    = "fxbot:signals"
	signalMaxLen    = 1000
	latestSignalKey = "fxbot:signal:latest"
	riskStateKey    = "fxbot:risk:state"
	latestTTL       = 24 * time.Hour
)

// Config configures the Redis publisher.
type Config struct {
	Addr     string // empty disables publishing
	Password string
	DB       int
}

// Publisher writes signals and risk state to Redis. A nil Publisher is
// valid and publishes nothing.
type Publisher struct {
	client *goredis.Client
}

// New creates a Publisher and pings the server. Returns (nil, nil) when
// no address is configured.
func New(cfg Config) (*Publisher, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// PublishSignal appends the signal to the signal stream and stores it
// as the latest. Errors are logged, not returned.
func (p *Publisher) PublishSignal(ctx context.Context, sig strategy.Signal) {
	if p == nil {
		return
	}

	payload := string(sig.JSON())
	if err := p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: signalStream,
		MaxLen: signalMaxLen,
		Approx: true,
		Values: map[string]interface{}{"signal": payload},
	}).Err(); err != nil {
		log.Printf("[redis] xadd signal: %v", err)
	}

	if err := p.client.Set(ctx, latestSignalKey, payload, latestTTL).Err(); err != nil {
		log.Printf("[redis] set latest signal: %v", err)
	}
}

// PublishRiskState stores the current risk ledger snapshot.
func (p *Publisher) PublishRiskState(ctx context.Context, st risk.State) {
	if p == nil {
		return
	}

	if err := p.client.HSet(ctx, riskStateKey, map[string]interface{}{
		"daily_loss":         st.DailyLoss,
		"consecutive_losses": st.ConsecutiveLosses,
		"halt_trading":       st.HaltTrading,
		"updated_at":         time.Now().UTC().Format(time.RFC3339),
	}).Err(); err != nil {
		log.Printf("[redis] hset risk state: %v", err)
	}
}

// Close releases the client. Safe on a nil Publisher.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.client.Close()
}
