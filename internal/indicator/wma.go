package indicator

// WMA calculates a linearly weighted moving average over a trailing
// window: weights 1..period assigned oldest to newest, normalized by
// the weight sum. Uses a preallocated circular buffer with incremental
// weighted sums for an O(1) hot path.
//
// Exactly period-1 leading outputs are undefined.
type WMA struct {
	period int
	buf    []float64 // circular buffer
	idx    int       // current write position
	count  int
	sum    float64 // plain sum of the window
	wsum   float64 // weighted sum, newest sample carries weight period
	denom  float64 // 1 + 2 + ... + period
}

// NewWMA creates a WMA indicator with the given period.
func NewWMA(period int) *WMA {
	return &WMA{
		period: period,
		buf:    make([]float64, period),
		denom:  float64(period) * float64(period+1) / 2,
	}
}

// Update feeds the next sample.
//
// Sliding the window shifts every weight down by one, which is the
// same as subtracting the old plain sum and adding period*v.
func (w *WMA) Update(v float64) {
	if w.count < w.period {
		w.count++
		w.buf[w.idx] = v
		w.idx = (w.idx + 1) % w.period
		w.sum += v
		w.wsum += float64(w.count) * v
		return
	}

	oldest := w.buf[w.idx]
	w.wsum = w.wsum - w.sum + float64(w.period)*v
	w.sum = w.sum - oldest + v
	w.buf[w.idx] = v
	w.idx = (w.idx + 1) % w.period
	w.count++
}

// Ready reports whether a full window has been absorbed.
func (w *WMA) Ready() bool { return w.count >= w.period }

// Value returns the current weighted average.
func (w *WMA) Value() Value {
	if !w.Ready() {
		return Value{}
	}
	return defined(w.wsum / w.denom)
}
