// Package calendar blocks trading around high-impact economic news.
// Events come from the ForexFactory weekly JSON feed and are cached;
// the feed only changes when the week rolls over.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultFeedURL = "https://nfs.faireconomy.media/ff_calendar_thisweek.json"
	cacheTTL       = 4 * time.Hour
)

// Config tunes the news filter.
type Config struct {
	Enabled     bool          `yaml:"enabled"`
	FeedURL     string        `yaml:"feed_url"`
	BlockBefore time.Duration `yaml:"block_before"`
	BlockAfter  time.Duration `yaml:"block_after"`
	MinImpact   string        `yaml:"min_impact"` // "High" or "Medium"
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// DefaultConfig blocks 30 minutes either side of high-impact events.
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		FeedURL:     defaultFeedURL,
		BlockBefore: 30 * time.Minute,
		BlockAfter:  30 * time.Minute,
		MinImpact:   "High",
		HTTPTimeout: 10 * time.Second,
	}
}

// Event is one calendar entry from the feed.
type Event struct {
	Title   string    `json:"title"`
	Country string    `json:"country"` // currency code, e.g. "USD"
	Date    time.Time `json:"date"`
	Impact  string    `json:"impact"`
}

// Filter fetches and caches the weekly calendar and answers "is a
// relevant event imminent".
type Filter struct {
	cfg    Config
	client *http.Client
	now    func() time.Time

	mu        sync.Mutex
	events    []Event
	fetchedAt time.Time
}

// NewFilter creates a news filter.
func NewFilter(cfg Config) *Filter {
	if cfg.FeedURL == "" {
		cfg.FeedURL = defaultFeedURL
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	return &Filter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		now:    time.Now,
	}
}

// AffectedCurrencies returns the currency codes a forex symbol is
// sensitive to: the base and quote halves of a 6-letter pair, or the
// whole symbol uppercased when it doesn't look like a pair.
func AffectedCurrencies(symbol string) []string {
	s := strings.ToUpper(symbol)
	// Broker suffixes like "EURUSD.m" or "EURUSD-ECN".
	if i := strings.IndexAny(s, ".-_"); i > 0 {
		s = s[:i]
	}
	if len(s) == 6 {
		return []string{s[:3], s[3:]}
	}
	return []string{s}
}

// ImminentEvent reports whether a relevant event falls inside the
// block window around now. The feed is fetched lazily and refreshed
// after the cache TTL; a fetch failure with a warm cache degrades to
// the cached events, a cold-cache failure fails open with a warning.
func (f *Filter) ImminentEvent(ctx context.Context, symbol string) (Event, bool) {
	if !f.cfg.Enabled {
		return Event{}, false
	}

	events, err := f.weeklyEvents(ctx)
	if err != nil {
		log.Printf("[calendar] feed unavailable, news filter inactive: %v", err)
		return Event{}, false
	}

	now := f.now()
	currencies := AffectedCurrencies(symbol)
	for _, ev := range events {
		if !f.relevantImpact(ev.Impact) {
			continue
		}
		if !containsString(currencies, ev.Country) {
			continue
		}
		if now.After(ev.Date.Add(-f.cfg.BlockBefore)) && now.Before(ev.Date.Add(f.cfg.BlockAfter)) {
			return ev, true
		}
	}
	return Event{}, false
}

func (f *Filter) relevantImpact(impact string) bool {
	switch f.cfg.MinImpact {
	case "Medium":
		return impact == "High" || impact == "Medium"
	default:
		return impact == "High"
	}
}

// feedEvent matches the ForexFactory JSON shape; dates are RFC3339
// with a numeric offset.
type feedEvent struct {
	Title   string `json:"title"`
	Country string `json:"country"`
	Date    string `json:"date"`
	Impact  string `json:"impact"`
}

func (f *Filter) weeklyEvents(ctx context.Context) ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.events != nil && f.now().Sub(f.fetchedAt) < cacheTTL {
		return f.events, nil
	}

	events, err := f.fetch(ctx)
	if err != nil {
		if f.events != nil {
			log.Printf("[calendar] refresh failed, serving stale events: %v", err)
			return f.events, nil
		}
		return nil, err
	}

	f.events = events
	f.fetchedAt = f.now()
	log.Printf("[calendar] loaded %d events from feed", len(events))
	return events, nil
}

func (f *Filter) fetch(ctx context.Context) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.FeedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar: fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar: feed status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("calendar: read feed: %w", err)
	}

	var feed []feedEvent
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("calendar: parse feed: %w", err)
	}

	events := make([]Event, 0, len(feed))
	for _, fe := range feed {
		ts, err := time.Parse(time.RFC3339, fe.Date)
		if err != nil {
			continue
		}
		events = append(events, Event{
			Title:   fe.Title,
			Country: strings.ToUpper(fe.Country),
			Date:    ts,
			Impact:  fe.Impact,
		})
	}
	return events, nil
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
