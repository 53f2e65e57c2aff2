// Package schedule decides polling cadence from live-game windows.
package schedule

import "time"

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithWindows replaces the default live windows.
func WithWindows(windows []Window) Option {
	return func(p *Policy) {
		if len(windows) > 0 {
			p.windows = windows
		}
	}
}

// WithOffHoursInterval sets the interval used outside every live window.
func WithOffHoursInterval(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.offHours = d
		}
	}
}

// WithLocation sets the location live windows are expressed in.
func WithLocation(loc *time.Location) Option {
	return func(p *Policy) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithLiveHoursEnabled toggles the whole live-window heuristic. When
// disabled every cycle uses the off-hours interval.
func WithLiveHoursEnabled(enabled bool) Option {
	return func(p *Policy) {
		p.enabled = enabled
	}
}
