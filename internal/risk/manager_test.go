package risk

import (
	"context"
	"testing"
	"time"

	"fxbotv1/internal/model"
)

// fakeHistory serves a fixed deal list regardless of the range.
type fakeHistory struct {
	deals []model.Deal
	err   error
	calls int
}

func (f *fakeHistory) HistoryDeals(ctx context.Context, from, to time.Time) ([]model.Deal, error) {
	f.calls++
	return f.deals, f.err
}

func deals(nets ...float64) []model.Deal {
	out := make([]model.Deal, len(nets))
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	for i, n := range nets {
		out[i] = model.Deal{Ticket: int64(i + 1), Time: base.Add(time.Duration(i) * time.Hour), Profit: n}
	}
	return out
}

func TestSyncDailyStats_LosingDay(t *testing.T) {
	// +100, -50, -60 → net -10, trailing streak of 2 losses.
	hist := &fakeHistory{deals: deals(100, -50, -60)}
	m := NewManager(DefaultConfig(), hist)

	if err := m.SyncDailyStats(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	st := m.Snapshot()
	if st.DailyLoss != 10.0 {
		t.Errorf("daily loss = %.2f, want 10.00", st.DailyLoss)
	}
	if st.ConsecutiveLosses != 2 {
		t.Errorf("consecutive losses = %d, want 2", st.ConsecutiveLosses)
	}
}

func TestSyncDailyStats_WinningDay(t *testing.T) {
	hist := &fakeHistory{deals: deals(100, -50)}
	m := NewManager(DefaultConfig(), hist)

	if err := m.SyncDailyStats(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	st := m.Snapshot()
	if st.DailyLoss != 0 {
		t.Errorf("daily loss = %.2f, want 0", st.DailyLoss)
	}
	if st.ConsecutiveLosses != 0 {
		t.Errorf("consecutive losses = %d, want 0", st.ConsecutiveLosses)
	}
}

func TestSyncDailyStats_Idempotent(t *testing.T) {
	hist := &fakeHistory{deals: deals(100, -50, -60)}
	m := NewManager(DefaultConfig(), hist)

	for i := 0; i < 3; i++ {
		if err := m.SyncDailyStats(context.Background()); err != nil {
			t.Fatalf("sync %d: %v", i, err)
		}
		st := m.Snapshot()
		if st.DailyLoss != 10.0 || st.ConsecutiveLosses != 2 {
			t.Fatalf("sync %d: got %+v, want daily_loss=10 consecutive=2", i, st)
		}
	}
	if hist.calls != 3 {
		t.Errorf("expected 3 history fetches, got %d", hist.calls)
	}
}

func TestSyncDailyStats_IgnoresZeroNetDeals(t *testing.T) {
	// Entry deals (net 0) must not break a losing streak.
	hist := &fakeHistory{deals: deals(-50, 0, -60)}
	m := NewManager(DefaultConfig(), hist)

	if err := m.SyncDailyStats(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	st := m.Snapshot()
	if st.DailyLoss != 110.0 {
		t.Errorf("daily loss = %.2f, want 110.00", st.DailyLoss)
	}
	if st.ConsecutiveLosses != 2 {
		t.Errorf("consecutive losses = %d, want 2", st.ConsecutiveLosses)
	}
}

func TestSyncDailyStats_NetIncludesSwapAndCommission(t *testing.T) {
	hist := &fakeHistory{deals: []model.Deal{
		{Ticket: 1, Profit: 10, Swap: -4, Commission: -7}, // net -1: a loss
	}}
	m := NewManager(DefaultConfig(), hist)

	if err := m.SyncDailyStats(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	st := m.Snapshot()
	if st.DailyLoss != 1.0 || st.ConsecutiveLosses != 1 {
		t.Errorf("got %+v, want daily_loss=1 consecutive=1", st)
	}
}

func TestUpdateMetrics(t *testing.T) {
	m := NewManager(DefaultConfig(), &fakeHistory{})

	m.UpdateMetrics(-30)
	m.UpdateMetrics(-20)
	st := m.Snapshot()
	if st.DailyLoss != 50 || st.ConsecutiveLosses != 2 {
		t.Fatalf("after two losses: %+v", st)
	}

	// A win shrinks the daily loss and resets the streak.
	m.UpdateMetrics(10)
	st = m.Snapshot()
	if st.DailyLoss != 40 || st.ConsecutiveLosses != 0 {
		t.Fatalf("after win: %+v", st)
	}

	// Daily loss never goes negative.
	m.UpdateMetrics(1000)
	if st = m.Snapshot(); st.DailyLoss != 0 {
		t.Fatalf("daily loss should floor at 0, got %.2f", st.DailyLoss)
	}
}

func TestCheckSafety_HaltLatchIsSticky(t *testing.T) {
	m := NewManager(DefaultConfig(), &fakeHistory{})

	if !m.CheckSafety(10000) {
		t.Fatal("fresh manager should allow trading")
	}

	// Breach the daily loss limit: 5% of 10000 = 500.
	m.UpdateMetrics(-600)
	if m.CheckSafety(10000) {
		t.Fatal("expected denial after daily loss breach")
	}

	// Balance recovery and even a ledger reset do not clear the latch.
	m.UpdateMetrics(10000)
	if m.CheckSafety(1e9) {
		t.Fatal("halt latch must be sticky for the process lifetime")
	}
	if !m.Snapshot().HaltTrading {
		t.Fatal("snapshot should report the halt")
	}
}

func TestCheckSafety_Ordering(t *testing.T) {
	t.Run("zero balance", func(t *testing.T) {
		m := NewManager(DefaultConfig(), &fakeHistory{})
		if m.CheckSafety(0) {
			t.Fatal("zero balance must deny")
		}
	})

	t.Run("consecutive losses", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxConsecutiveLosses = 2
		m := NewManager(cfg, &fakeHistory{})
		m.UpdateMetrics(-1)
		m.UpdateMetrics(-1)
		if m.CheckSafety(100000) {
			t.Fatal("streak at limit must deny")
		}
	})
}

func testSpec() model.SymbolSpec {
	return model.SymbolSpec{
		Symbol:     "EURUSD",
		Point:      0.00001,
		TickSize:   0.00001,
		TickValue:  1.0,
		VolumeStep: 0.01,
		VolumeMin:  0.01,
		VolumeMax:  100,
	}
}

func TestComputeLotSize_RiskMath(t *testing.T) {
	m := NewManager(DefaultConfig(), &fakeHistory{})
	spec := testSpec()

	// balance 10000, risk 1% = 100. Stop distance 0.00500 = 500 ticks,
	// $1/tick → $500 per lot → 0.2 lots.
	lots := m.ComputeLotSize(spec, 1.08000, 1.08500, 10000)
	if lots != 0.2 {
		t.Fatalf("lots = %.4f, want 0.2", lots)
	}
}

func TestComputeLotSize_MonotoneInStopDistance(t *testing.T) {
	m := NewManager(DefaultConfig(), &fakeHistory{})
	spec := testSpec()

	prev := m.ComputeLotSize(spec, 1.08400, 1.08500, 10000)
	for _, sl := range []float64{1.08300, 1.08000, 1.07000, 1.05000} {
		lots := m.ComputeLotSize(spec, sl, 1.08500, 10000)
		if lots > prev {
			t.Fatalf("lot size grew from %.4f to %.4f as stop widened", prev, lots)
		}
		prev = lots
	}
}

func TestComputeLotSize_Boundaries(t *testing.T) {
	m := NewManager(DefaultConfig(), &fakeHistory{})
	spec := testSpec()

	t.Run("zero distance", func(t *testing.T) {
		if lots := m.ComputeLotSize(spec, 1.08500, 1.08500, 10000); lots != 0 {
			t.Fatalf("zero stop distance must size to 0, got %.4f", lots)
		}
	})

	t.Run("below minimum returns zero, never rounds up", func(t *testing.T) {
		// Huge stop distance → microscopic size, below VolumeMin.
		if lots := m.ComputeLotSize(spec, 0.10000, 1.08500, 100); lots != 0 {
			t.Fatalf("sub-minimum size must be 0, got %.4f", lots)
		}
	})

	t.Run("clamped to maximum", func(t *testing.T) {
		s := spec
		s.VolumeMax = 0.5
		// Tiny stop → enormous raw size.
		lots := m.ComputeLotSize(s, 1.08499, 1.08500, 1000000)
		if lots != 0.5 {
			t.Fatalf("lots = %.4f, want clamp at 0.5", lots)
		}
	})

	t.Run("quantized down to step", func(t *testing.T) {
		s := spec
		s.VolumeStep = 0.1
		// Raw size 0.2 stays 0.2; raw 0.25 would floor to 0.2.
		lots := m.ComputeLotSize(s, 1.08000, 1.08500, 12500) // raw 0.25
		if lots != 0.2 {
			t.Fatalf("lots = %.4f, want floor to 0.2", lots)
		}
	})

	t.Run("no strictly-between min and zero result", func(t *testing.T) {
		for bal := 10.0; bal < 2000; bal += 37 {
			lots := m.ComputeLotSize(spec, 1.08000, 1.08500, bal)
			if lots > 0 && lots < spec.VolumeMin {
				t.Fatalf("balance %.0f: lots %.4f strictly between 0 and min", bal, lots)
			}
			if lots > spec.VolumeMax {
				t.Fatalf("balance %.0f: lots %.4f above max", bal, lots)
			}
		}
	})
}

func TestComputeLotSize_UnsafeStateSizesZero(t *testing.T) {
	m := NewManager(DefaultConfig(), &fakeHistory{})
	m.UpdateMetrics(-1e9) // guarantee a breach at any balance

	if lots := m.ComputeLotSize(testSpec(), 1.08000, 1.08500, 10000); lots != 0 {
		t.Fatalf("unsafe state must size to 0, got %.4f", lots)
	}
}
