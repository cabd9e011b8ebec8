package model

// SymbolSpec carries the broker's trading parameters for one symbol.
// Read-only per evaluation; fetched fresh from the terminal each cycle.
type SymbolSpec struct {
	Symbol     string  `json:"symbol"`
	Point      float64 `json:"point"`       // smallest price increment
	TickSize   float64 `json:"tick_size"`   // minimal price change for P&L purposes
	TickValue  float64 `json:"tick_value"`  // account-currency value of one tick per 1.0 lot
	VolumeStep float64 `json:"volume_step"` // lot granularity
	VolumeMin  float64 `json:"volume_min"`
	VolumeMax  float64 `json:"volume_max"`
}
