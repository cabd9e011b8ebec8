package indicator

import (
	"math"
	"testing"
)

// synthetic price path: deterministic but uneven, mixes up and down moves.
func testPrices(n int) []float64 {
	prices := make([]float64, n)
	p := 100.0
	for i := 0; i < n; i++ {
		p += 0.7*math.Sin(float64(i)*0.9) + 0.3*math.Cos(float64(i)*0.37)
		prices[i] = p
	}
	return prices
}

func TestRSI_WarmupAndRange(t *testing.T) {
	const period = 14
	rsi := NewRSI(period)

	for i, p := range testPrices(120) {
		rsi.Update(p)
		v := rsi.Value()

		if i < period && v.Valid {
			t.Fatalf("sample %d: RSI defined inside warm-up window", i)
		}
		if i >= period && !v.Valid {
			t.Fatalf("sample %d: RSI undefined after warm-up", i)
		}
		if v.Valid && (v.V < 0 || v.V > 100) {
			t.Errorf("sample %d: RSI %.4f outside [0,100]", i, v.V)
		}
	}
}

func TestRSI_MonotonicUpApproaches100(t *testing.T) {
	rsi := NewRSI(14)
	for i := 0; i < 60; i++ {
		rsi.Update(100 + float64(i))
	}
	v := rsi.Value()
	if !v.Valid {
		t.Fatal("expected RSI defined after 60 samples")
	}
	if v.V < 99.9 {
		t.Errorf("expected RSI near 100 for monotonic rise, got %.4f", v.V)
	}
}

func TestWMA_WarmupLength(t *testing.T) {
	const period = 45
	wma := NewWMA(period)

	for i := 0; i < 100; i++ {
		wma.Update(float64(i))
		v := wma.Value()
		if i < period-1 && v.Valid {
			t.Fatalf("sample %d: WMA defined before window filled", i)
		}
		if i >= period-1 && !v.Valid {
			t.Fatalf("sample %d: WMA undefined after window filled", i)
		}
	}
}

func TestWMA_WeightedValue(t *testing.T) {
	wma := NewWMA(5)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		wma.Update(v)
	}
	// (1*1 + 2*2 + 3*3 + 4*4 + 5*5) / 15
	want := 55.0 / 15.0
	got := wma.Value()
	if !got.Valid || math.Abs(got.V-want) > 1e-12 {
		t.Fatalf("expected WMA %.6f, got %+v", want, got)
	}

	// Slide the window once: [2,3,4,5,6] weighted 1..5.
	wma.Update(6)
	want = (2 + 2*3 + 3*4 + 4*5 + 5*6) / 15.0
	got = wma.Value()
	if !got.Valid || math.Abs(got.V-want) > 1e-9 {
		t.Fatalf("expected WMA %.6f after slide, got %+v", want, got)
	}
}

func TestEMA_DefinedFromFirstSample(t *testing.T) {
	ema := NewEMA(9)
	if ema.Value().Valid {
		t.Fatal("EMA defined before any sample")
	}

	ema.Update(50)
	v := ema.Value()
	if !v.Valid || v.V != 50 {
		t.Fatalf("expected EMA seeded with first sample, got %+v", v)
	}

	// alpha = 2/(9+1) = 0.2
	ema.Update(60)
	want := 50 + 0.2*(60-50)
	v = ema.Value()
	if math.Abs(v.V-want) > 1e-12 {
		t.Fatalf("expected EMA %.4f, got %.4f", want, v.V)
	}
}

func TestADX_WarmupAndRange(t *testing.T) {
	const period = 14
	adx := NewADX(period)

	prices := testPrices(150)
	firstDefined := -1
	for i, p := range prices {
		adx.Update(p+0.5, p-0.5, p)
		v := adx.Value()
		if v.Valid {
			if firstDefined == -1 {
				firstDefined = i
			}
			if v.V < 0 || v.V > 100 {
				t.Errorf("bar %d: ADX %.4f outside [0,100]", i, v.V)
			}
		}
	}

	// TR/DM smoothing needs period bars, DX smoothing another period.
	if firstDefined != 2*period-1 {
		t.Errorf("expected first defined ADX at bar %d, got %d", 2*period-1, firstDefined)
	}
}
