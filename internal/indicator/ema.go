package indicator

// EMA calculates an exponential moving average with decay
// alpha = 2/(period+1). It is seeded with the first sample and defined
// from then on — there is no warm-up gating.
type EMA struct {
	alpha   float64
	current float64
	count   int
}

// NewEMA creates an EMA indicator with the given period.
func NewEMA(period int) *EMA {
	return &EMA{alpha: 2.0 / float64(period+1)}
}

// Update feeds the next sample.
func (e *EMA) Update(v float64) {
	e.count++
	if e.count == 1 {
		e.current = v
		return
	}
	e.current += e.alpha * (v - e.current)
}

// Ready reports whether at least one sample has been absorbed.
func (e *EMA) Ready() bool { return e.count > 0 }

// Value returns the current average.
func (e *EMA) Value() Value {
	if !e.Ready() {
		return Value{}
	}
	return defined(e.current)
}
