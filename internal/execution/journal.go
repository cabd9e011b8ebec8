package execution

import (
	"database/sql"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"fxbotv1/internal/model"
	"fxbotv1/internal/strategy"
)

// Journal persists placed trades to SQLite for analysis and audit.
// It is a write-behind record, never read back by the decision core.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// NewJournal opens (or creates) a SQLite journal database.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket       INTEGER NOT NULL,
		symbol       TEXT NOT NULL,
		side         TEXT NOT NULL,
		lots         REAL NOT NULL,
		entry_price  REAL NOT NULL,
		fill_price   REAL NOT NULL,
		sl           REAL NOT NULL,
		tp           REAL NOT NULL,
		reason       TEXT,
		confirmed_at DATETIME NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_created_at ON trades(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[journal] opened trade journal at %s", dbPath)
	return &Journal{db: db}, nil
}

// RecordTrade persists one placed trade.
func (j *Journal) RecordTrade(sig strategy.Signal, lots float64, res model.OrderResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO trades (ticket, symbol, side, lots, entry_price, fill_price, sl, tp, reason, confirmed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.Ticket,
		sig.Symbol,
		string(sig.Side),
		lots,
		sig.EntryPrice,
		res.Price,
		sig.SLPrice,
		sig.TPPrice,
		sig.Reason,
		sig.ConfirmedAt.Format(time.RFC3339),
	)
	return err
}

// TradeRecord represents a row from the trades table.
type TradeRecord struct {
	ID          int64   `json:"id"`
	Ticket      int64   `json:"ticket"`
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	Lots        float64 `json:"lots"`
	EntryPrice  float64 `json:"entry_price"`
	FillPrice   float64 `json:"fill_price"`
	SL          float64 `json:"sl"`
	TP          float64 `json:"tp"`
	Reason      string  `json:"reason"`
	ConfirmedAt string  `json:"confirmed_at"`
}

// RecentTrades returns the last N trades, newest first.
func (j *Journal) RecentTrades(limit int) ([]TradeRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, ticket, symbol, side, lots, entry_price, fill_price, sl, tp, reason, confirmed_at
		 FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.ID, &t.Ticket, &t.Symbol, &t.Side, &t.Lots,
			&t.EntryPrice, &t.FillPrice, &t.SL, &t.TP, &t.Reason, &t.ConfirmedAt); err != nil {
			continue
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
