package notification

import (
	"fmt"
	"time"

	"fxbotv1/internal/model"
	"fxbotv1/internal/risk"
	"fxbotv1/internal/strategy"
)

// Alert builders for the bot's lifecycle events. Kept here so the
// orchestrator never formats message text itself.

// TradeExecuted describes a filled order.
func TradeExecuted(sig strategy.Signal, lots float64, res model.OrderResult) Alert {
	return Alert{
		Level: AlertInfo,
		Title: fmt.Sprintf("Trade executed: %s %s", sig.Side, sig.Symbol),
		Message: fmt.Sprintf("ticket=%d lots=%.2f fill=%.5f sl=%.5f tp=%.5f reason=%s",
			res.Ticket, lots, res.Price, sig.SLPrice, sig.TPPrice, sig.Reason),
	}
}

// TradingHalted describes a tripped circuit breaker. Sent once per
// halt; the latch never clears without a restart.
func TradingHalted(st risk.State) Alert {
	return Alert{
		Level: AlertCritical,
		Title: "Trading halted",
		Message: fmt.Sprintf("daily_loss=%.2f consecutive_losses=%d — no new trades until restart",
			st.DailyLoss, st.ConsecutiveLosses),
	}
}

// StopMoved describes a trailing-stop modification.
func StopMoved(symbol string, ticket int64, newSL float64) Alert {
	return Alert{
		Level:   AlertInfo,
		Title:   fmt.Sprintf("Stop moved: %s", symbol),
		Message: fmt.Sprintf("ticket=%d new_sl=%.5f", ticket, newSL),
	}
}

// DailySummary reports the day's risk ledger and account state.
func DailySummary(acct model.Account, st risk.State, trades int) Alert {
	return Alert{
		Level: AlertInfo,
		Title: "Daily summary",
		Message: fmt.Sprintf("balance=%.2f equity=%.2f daily_loss=%.2f consecutive_losses=%d trades_today=%d halted=%v",
			acct.Balance, acct.Equity, st.DailyLoss, st.ConsecutiveLosses, trades, st.HaltTrading),
	}
}

// Heartbeat confirms the bot is alive.
func Heartbeat(symbol string, since time.Time) Alert {
	return Alert{
		Level:   AlertInfo,
		Title:   "Heartbeat",
		Message: fmt.Sprintf("watching %s, up %s", symbol, time.Since(since).Round(time.Minute)),
	}
}
