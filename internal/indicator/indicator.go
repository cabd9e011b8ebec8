// Package indicator provides streaming technical indicator calculations.
//
// Each indicator consumes one input sample at a time and exposes its
// current value plus a readiness flag. Outputs produced during the
// warm-up window are explicitly undefined — callers receive a Value
// whose Valid field is false rather than a sentinel number.
package indicator

// epsilon guards near-zero denominators in ratio indicators.
const epsilon = 1e-9

// Value is a single indicator output. Valid is false while the
// indicator is still inside its warm-up window.
type Value struct {
	V     float64
	Valid bool
}

// defined wraps v as a valid Value.
func defined(v float64) Value { return Value{V: v, Valid: true} }

// wilder is Wilder's recursive exponential average: decay 1/period,
// seeded with the first observation. The output is undefined until
// period observations have been absorbed.
type wilder struct {
	period int
	count  int
	avg    float64
}

func newWilder(period int) wilder {
	return wilder{period: period}
}

func (w *wilder) update(v float64) {
	w.count++
	if w.count == 1 {
		w.avg = v
		return
	}
	w.avg += (v - w.avg) / float64(w.period)
}

func (w *wilder) value() float64 { return w.avg }
func (w *wilder) ready() bool    { return w.count >= w.period }
