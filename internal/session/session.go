// Package session gates trading on time of day. The forex market runs
// around the clock Monday to Friday; on top of that the bot only opens
// trades inside a configured intraday window.
package session

import "time"

// Forex weekend boundaries in UTC: the market closes Friday 21:00 and
// reopens Sunday 21:00 (Sydney open).
const (
	weekendCloseHourUTC = 21
	weekendOpenHourUTC  = 21
)

// Config is the intraday trading window, expressed in UTC hours.
// Start == End means the window is the whole trading day.
type Config struct {
	StartHour int `yaml:"start_hour"`
	EndHour   int `yaml:"end_hour"`
}

// DefaultConfig covers the London + New York overlap.
func DefaultConfig() Config {
	return Config{StartHour: 7, EndHour: 20}
}

// IsForexOpen reports whether the forex market itself is open at t.
func IsForexOpen(t time.Time) bool {
	u := t.UTC()
	switch u.Weekday() {
	case time.Saturday:
		return false
	case time.Friday:
		return u.Hour() < weekendCloseHourUTC
	case time.Sunday:
		return u.Hour() >= weekendOpenHourUTC
	default:
		return true
	}
}

// InWindow reports whether t falls inside the configured intraday
// window. Windows may wrap midnight (e.g. 22→6).
func (c Config) InWindow(t time.Time) bool {
	if c.StartHour == c.EndHour {
		return true
	}
	h := t.UTC().Hour()
	if c.StartHour < c.EndHour {
		return h >= c.StartHour && h < c.EndHour
	}
	return h >= c.StartHour || h < c.EndHour
}

// CanTrade combines the market calendar and the configured window.
func (c Config) CanTrade(t time.Time) bool {
	return IsForexOpen(t) && c.InWindow(t)
}
