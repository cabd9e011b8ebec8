package indicator

import "fxbotv1/internal/model"

// Config selects the periods for a frame computation.
type Config struct {
	RSIPeriod int `yaml:"rsi_period"`
	WMAPeriod int `yaml:"wma_period"`
	EMAPeriod int `yaml:"ema_period"`
	ADXPeriod int `yaml:"adx_period"`
}

// Frame holds indicator columns aligned index-for-index with a candle
// series. RSIWMA and RSIEMA are computed over the RSI column, not the
// raw price, so their warm-up windows stack on top of RSI's.
type Frame struct {
	RSI    []Value
	RSIWMA []Value
	RSIEMA []Value
	ADX    []Value
}

// Len returns the number of rows in the frame.
func (f Frame) Len() int { return len(f.RSI) }

// Row is the set of indicator values for one bar.
type Row struct {
	RSI    Value
	RSIWMA Value
	RSIEMA Value
	ADX    Value
}

// At returns the indicator values at index i.
func (f Frame) At(i int) Row {
	return Row{RSI: f.RSI[i], RSIWMA: f.RSIWMA[i], RSIEMA: f.RSIEMA[i], ADX: f.ADX[i]}
}

// ComputeFrame runs the streaming indicators over a full series and
// collects their outputs into aligned columns. Undefined RSI entries
// are not fed into the derived smoothers, so a derived column becomes
// defined only after its own window fills with defined RSI values.
func ComputeFrame(s model.Series, cfg Config) Frame {
	n := len(s)
	f := Frame{
		RSI:    make([]Value, n),
		RSIWMA: make([]Value, n),
		RSIEMA: make([]Value, n),
		ADX:    make([]Value, n),
	}

	rsi := NewRSI(cfg.RSIPeriod)
	wma := NewWMA(cfg.WMAPeriod)
	ema := NewEMA(cfg.EMAPeriod)
	adx := NewADX(cfg.ADXPeriod)

	for i, c := range s {
		rsi.Update(c.Close)
		f.RSI[i] = rsi.Value()

		if f.RSI[i].Valid {
			wma.Update(f.RSI[i].V)
			ema.Update(f.RSI[i].V)
			f.RSIWMA[i] = wma.Value()
			f.RSIEMA[i] = ema.Value()
		}

		adx.Update(c.High, c.Low, c.Close)
		f.ADX[i] = adx.Value()
	}
	return f
}
