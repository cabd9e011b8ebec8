package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func TestAffectedCurrencies(t *testing.T) {
	cases := []struct {
		symbol string
		want   []string
	}{
		{"EURUSD", []string{"EUR", "USD"}},
		{"gbpjpy", []string{"GBP", "JPY"}},
		{"EURUSD.m", []string{"EUR", "USD"}},
		{"XAUUSD-ECN", []string{"XAU", "USD"}},
		{"US30", []string{"US30"}},
	}
	for _, tc := range cases {
		if got := AffectedCurrencies(tc.symbol); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("AffectedCurrencies(%q) = %v, want %v", tc.symbol, got, tc.want)
		}
	}
}

func newTestFilter(t *testing.T, events []feedEvent, now time.Time) (*Filter, *int) {
	t.Helper()
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		json.NewEncoder(w).Encode(events)
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.FeedURL = srv.URL
	f := NewFilter(cfg)
	f.now = func() time.Time { return now }
	return f, &fetches
}

func TestImminentEvent(t *testing.T) {
	now := time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)
	events := []feedEvent{
		{Title: "Non-Farm Payrolls", Country: "USD", Impact: "High",
			Date: now.Add(15 * time.Minute).Format(time.RFC3339)},
		{Title: "German ZEW", Country: "EUR", Impact: "Medium",
			Date: now.Add(10 * time.Minute).Format(time.RFC3339)},
		{Title: "BoJ Presser", Country: "JPY", Impact: "High",
			Date: now.Add(5 * time.Minute).Format(time.RFC3339)},
	}
	f, _ := newTestFilter(t, events, now)

	t.Run("high impact inside window blocks", func(t *testing.T) {
		ev, blocked := f.ImminentEvent(context.Background(), "EURUSD")
		if !blocked {
			t.Fatal("NFP 15 minutes out must block EURUSD")
		}
		if ev.Title != "Non-Farm Payrolls" {
			t.Fatalf("event = %q", ev.Title)
		}
	})

	t.Run("medium impact ignored at High threshold", func(t *testing.T) {
		if _, blocked := f.ImminentEvent(context.Background(), "EURCHF"); blocked {
			t.Fatal("medium-impact EUR event should not block at High threshold")
		}
	})

	t.Run("unrelated currency ignored", func(t *testing.T) {
		if _, blocked := f.ImminentEvent(context.Background(), "AUDCAD"); blocked {
			t.Fatal("no AUD or CAD events in the feed")
		}
	})
}

func TestImminentEvent_WindowEdges(t *testing.T) {
	now := time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)
	eventAt := func(offset time.Duration) []feedEvent {
		return []feedEvent{{Title: "CPI", Country: "USD", Impact: "High",
			Date: now.Add(offset).Format(time.RFC3339)}}
	}

	t.Run("just outside before-window", func(t *testing.T) {
		f, _ := newTestFilter(t, eventAt(31*time.Minute), now)
		if _, blocked := f.ImminentEvent(context.Background(), "EURUSD"); blocked {
			t.Fatal("event beyond block_before must not block")
		}
	})

	t.Run("recently passed still blocks", func(t *testing.T) {
		f, _ := newTestFilter(t, eventAt(-20*time.Minute), now)
		if _, blocked := f.ImminentEvent(context.Background(), "EURUSD"); !blocked {
			t.Fatal("event 20 minutes ago is inside block_after")
		}
	})

	t.Run("long past does not block", func(t *testing.T) {
		f, _ := newTestFilter(t, eventAt(-40*time.Minute), now)
		if _, blocked := f.ImminentEvent(context.Background(), "EURUSD"); blocked {
			t.Fatal("event 40 minutes ago is outside block_after")
		}
	})
}

func TestFeedCaching(t *testing.T) {
	now := time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)
	f, fetches := newTestFilter(t, nil, now)

	for i := 0; i < 5; i++ {
		f.ImminentEvent(context.Background(), "EURUSD")
	}
	if *fetches != 1 {
		t.Fatalf("expected a single fetch within the TTL, got %d", *fetches)
	}

	// Jump past the TTL: the next check refreshes.
	f.now = func() time.Time { return now.Add(cacheTTL + time.Minute) }
	f.ImminentEvent(context.Background(), "EURUSD")
	if *fetches != 2 {
		t.Fatalf("expected a refresh after the TTL, got %d fetches", *fetches)
	}
}

func TestDisabledFilterNeverBlocks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	f := NewFilter(cfg)
	if _, blocked := f.ImminentEvent(context.Background(), "EURUSD"); blocked {
		t.Fatal("disabled filter must never block")
	}
}
