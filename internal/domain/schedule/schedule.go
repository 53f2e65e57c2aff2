// Package schedule decides how often to poll based on wall-clock time and
// the configured live-game windows. The policy is a pure function of time
// and configuration; callers re-evaluate it at the top of every poll cycle
// so interval changes take effect without a restart.
package schedule

import "time"

// Default interval tiers.
const (
	defaultSundayInterval   = 30 * time.Second
	defaultWeeknightInterval = 60 * time.Second
	defaultOffHoursInterval = 10 * time.Minute
)

// Window is one live-game window on a weekday, in minutes since midnight
// in the policy's location. End is exclusive.
type Window struct {
	Day      time.Weekday
	Start    int
	End      int
	Interval time.Duration
}

// contains reports whether the local time t falls inside the window.
func (w Window) contains(t time.Time) bool {
	if t.Weekday() != w.Day {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= w.Start && minutes < w.End
}

// Policy maps a point in time to a polling interval.
type Policy struct {
	enabled  bool
	windows  []Window
	offHours time.Duration
	loc      *time.Location
}

// NewPolicy creates a policy with configuration options. Without options it
// covers the NFL's main slates: Sunday afternoon plus Monday and Thursday
// night, with a slow off-hours tier the rest of the week.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		enabled:  true,
		offHours: defaultOffHoursInterval,
		loc:      time.UTC,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.windows == nil {
		p.windows = DefaultWindows()
	}

	return p
}

// DefaultWindows returns the standard NFL live windows.
func DefaultWindows() []Window {
	return []Window{
		{Day: time.Sunday, Start: 13 * 60, End: 23 * 60, Interval: defaultSundayInterval},
		{Day: time.Monday, Start: 20 * 60, End: 23 * 60, Interval: defaultWeeknightInterval},
		{Day: time.Thursday, Start: 20 * 60, End: 23*60 + 30, Interval: defaultWeeknightInterval},
	}
}

// IntervalFor returns the polling interval to use for a cycle starting at now.
func (p *Policy) IntervalFor(now time.Time) time.Duration {
	if !p.enabled {
		return p.offHours
	}
	local := now.In(p.loc)
	for _, w := range p.windows {
		if w.contains(local) {
			return w.Interval
		}
	}
	return p.offHours
}

// InLiveWindow reports whether now falls inside any configured window.
func (p *Policy) InLiveWindow(now time.Time) bool {
	if !p.enabled {
		return false
	}
	local := now.In(p.loc)
	for _, w := range p.windows {
		if w.contains(local) {
			return true
		}
	}
	return false
}
