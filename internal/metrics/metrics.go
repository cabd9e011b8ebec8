// Package metrics exposes Prometheus metrics and a health endpoint for
// the trading bot.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the bot.
type Metrics struct {
	CyclesTotal     prometheus.Counter
	CycleDur        prometheus.Histogram
	SignalsTotal    *prometheus.CounterVec // labels: side
	TradesTotal     *prometheus.CounterVec // labels: side
	OrderRetries    prometheus.Counter
	TrailingMods    prometheus.Counter
	BridgeErrors    prometheus.Counter
	StreamReconnect prometheus.Counter

	// Risk ledger
	DailyLoss         prometheus.Gauge
	ConsecutiveLosses prometheus.Gauge
	HaltState         prometheus.Gauge // 0=trading, 1=halted
	AccountBalance    prometheus.Gauge
	AccountEquity     prometheus.Gauge

	// Filters
	CyclesSkipped *prometheus.CounterVec // labels: reason=session|news|spread|position|halt
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxbot_cycles_total",
			Help: "Total evaluation cycles run",
		}),
		CycleDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fxbot_cycle_duration_seconds",
			Help:    "Evaluation cycle latency (candle fetch to decision)",
			Buckets: prometheus.DefBuckets,
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fxbot_signals_total",
			Help: "Confirmed signals emitted by the cascade (by side)",
		}, []string{"side"}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fxbot_trades_total",
			Help: "Orders accepted by the trade server (by side)",
		}, []string{"side"}),
		OrderRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxbot_order_retries_total",
			Help: "Order placements retried after a transient rejection",
		}),
		TrailingMods: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxbot_trailing_modifications_total",
			Help: "Trailing stop modifications applied",
		}),
		BridgeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxbot_bridge_errors_total",
			Help: "Failed terminal bridge calls",
		}),
		StreamReconnect: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fxbot_stream_reconnects_total",
			Help: "Tick stream reconnections",
		}),
		DailyLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fxbot_daily_loss",
			Help: "Accumulated daily loss in account currency",
		}),
		ConsecutiveLosses: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fxbot_consecutive_losses",
			Help: "Current losing streak length",
		}),
		HaltState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fxbot_halt_state",
			Help: "Circuit breaker state (0=trading, 1=halted)",
		}),
		AccountBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fxbot_account_balance",
			Help: "Account balance in account currency",
		}),
		AccountEquity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fxbot_account_equity",
			Help: "Account equity in account currency",
		}),
		CyclesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fxbot_cycles_skipped_total",
			Help: "Cycles that produced no signal evaluation (by reason)",
		}, []string{"reason"}),
	}

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDur,
		m.SignalsTotal,
		m.TradesTotal,
		m.OrderRetries,
		m.TrailingMods,
		m.BridgeErrors,
		m.StreamReconnect,
		m.DailyLoss,
		m.ConsecutiveLosses,
		m.HaltState,
		m.AccountBalance,
		m.AccountEquity,
		m.CyclesSkipped,
	)

	return m
}

// HealthStatus represents the bot's health for the /healthz endpoint.
type HealthStatus struct {
	mu sync.RWMutex

	BridgeOK     bool
	LastCycleAt  time.Time
	LastTickTime time.Time
	Halted       bool
	StartedAt    time.Time
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetBridgeOK(v bool) {
	h.mu.Lock()
	h.BridgeOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastCycle(t time.Time) {
	h.mu.Lock()
	h.LastCycleAt = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastTickTime(t time.Time) {
	h.mu.Lock()
	h.LastTickTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetHalted(v bool) {
	h.mu.Lock()
	h.Halted = v
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.BridgeOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	cycleAge := ""
	if !h.LastCycleAt.IsZero() {
		cycleAge = time.Since(h.LastCycleAt).Round(time.Millisecond).String()
	}

	status := struct {
		Status       string `json:"status"`
		Uptime       string `json:"uptime"`
		BridgeOK     bool   `json:"bridge_ok"`
		LastCycleAt  string `json:"last_cycle_at"`
		CycleAge     string `json:"cycle_age"`
		LastTickTime string `json:"last_tick_time"`
		Halted       bool   `json:"halted"`
	}{
		Status:       overallStatus,
		Uptime:       time.Since(h.StartedAt).Round(time.Second).String(),
		BridgeOK:     h.BridgeOK,
		LastCycleAt:  h.LastCycleAt.Format(time.RFC3339),
		CycleAge:     cycleAge,
		LastTickTime: h.LastTickTime.Format(time.RFC3339),
		Halted:       h.Halted,
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
