package logger

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestInit(t *testing.T) {
	logger := Init("test-service", slog.LevelInfo)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestCycleID_RoundTrip(t *testing.T) {
	ctx := context.Background()

	if cid := CycleID(ctx); cid != "" {
		t.Errorf("expected empty cycle id, got %q", cid)
	}

	ctx = WithCycleID(ctx, "EURUSD-123")
	if cid := CycleID(ctx); cid != "EURUSD-123" {
		t.Errorf("expected 'EURUSD-123', got %q", cid)
	}
}

func TestGenerateCycleID(t *testing.T) {
	ts := time.Date(2024, 6, 3, 10, 30, 0, 123456789, time.UTC)
	cid := GenerateCycleID("EURUSD", ts)

	if !strings.HasPrefix(cid, "EURUSD-") {
		t.Errorf("expected cycle id to start with 'EURUSD-', got %s", cid)
	}
	if !strings.Contains(cid, "123456789") {
		t.Errorf("expected cycle id to contain nanoseconds, got %s", cid)
	}
}

func TestLogWithCycle(t *testing.T) {
	ctx := context.Background()

	if attrs := LogWithCycle(ctx); attrs != nil {
		t.Errorf("expected nil attrs when no cycle id, got %v", attrs)
	}

	ctx = WithCycleID(ctx, "abc-123")
	if attrs := LogWithCycle(ctx); len(attrs) == 0 {
		t.Fatal("expected non-empty attrs with cycle id set")
	}
}
