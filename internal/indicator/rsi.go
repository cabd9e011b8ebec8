package indicator

import "math"

// RSI calculates the Relative Strength Index using Wilder's smoothing.
// Update is O(1) per sample — no history scans. Up and down moves are
// smoothed independently with decay 1/period; the output stays
// undefined until period deltas have been absorbed.
type RSI struct {
	period int
	count  int
	prev   float64
	up     wilder
	down   wilder
}

// NewRSI creates an RSI indicator with the given period (typically 14).
func NewRSI(period int) *RSI {
	return &RSI{
		period: period,
		up:     newWilder(period),
		down:   newWilder(period),
	}
}

// Update feeds the next price sample.
func (r *RSI) Update(price float64) {
	r.count++
	if r.count == 1 {
		// First sample — no delta yet.
		r.prev = price
		return
	}

	delta := price - r.prev
	r.prev = price

	up, down := 0.0, 0.0
	if delta > 0 {
		up = delta
	} else {
		down = -delta
	}
	r.up.update(up)
	r.down.update(down)
}

// Ready reports whether the warm-up window has passed.
func (r *RSI) Ready() bool { return r.up.ready() }

// Value returns the current RSI. Defined outputs always lie in [0, 100].
func (r *RSI) Value() Value {
	if !r.Ready() {
		return Value{}
	}
	rs := r.up.value() / math.Max(r.down.value(), epsilon)
	return defined(100 - 100/(1+rs))
}
