package indicator

import "math"

// ADX calculates the Average Directional Index. True range and the two
// directional movements are smoothed with the same Wilder recursion and
// warm-up as RSI; the resulting DX series is Wilder-smoothed again, so
// the output becomes defined only after roughly two periods of bars.
// Defined outputs lie in [0, 100].
type ADX struct {
	period    int
	count     int
	prevHigh  float64
	prevLow   float64
	prevClose float64

	tr      wilder
	plusDM  wilder
	minusDM wilder
	dx      wilder
}

// NewADX creates an ADX indicator with the given period (typically 14).
func NewADX(period int) *ADX {
	return &ADX{
		period:  period,
		tr:      newWilder(period),
		plusDM:  newWilder(period),
		minusDM: newWilder(period),
		dx:      newWilder(period),
	}
}

// Update feeds the next bar.
func (a *ADX) Update(high, low, close float64) {
	a.count++
	if a.count == 1 {
		a.prevHigh, a.prevLow, a.prevClose = high, low, close
		return
	}

	tr := math.Max(high-low, math.Max(math.Abs(high-a.prevClose), math.Abs(low-a.prevClose)))

	upMove := high - a.prevHigh
	downMove := a.prevLow - low
	plus, minus := 0.0, 0.0
	if upMove > downMove && upMove > 0 {
		plus = upMove
	}
	if downMove > upMove && downMove > 0 {
		minus = downMove
	}

	a.prevHigh, a.prevLow, a.prevClose = high, low, close

	a.tr.update(tr)
	a.plusDM.update(plus)
	a.minusDM.update(minus)

	// DX exists only once the component averages are out of warm-up.
	if !a.tr.ready() {
		return
	}
	trAvg := math.Max(a.tr.value(), epsilon)
	plusDI := 100 * a.plusDM.value() / trAvg
	minusDI := 100 * a.minusDM.value() / trAvg
	dx := 100 * math.Abs(plusDI-minusDI) / math.Max(plusDI+minusDI, epsilon)
	a.dx.update(dx)
}

// Ready reports whether the DX smoother is out of its warm-up window.
func (a *ADX) Ready() bool { return a.dx.ready() }

// Value returns the current ADX.
func (a *ADX) Value() Value {
	if !a.Ready() {
		return Value{}
	}
	return defined(a.dx.value())
}
