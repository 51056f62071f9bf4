package alarm

import "time"

// State represents the alarm status at a specific point in time.
type State struct {
	// LastTrigger is when an intrusion was last reported.
	// It is meaningful only when Triggered is true.
	LastTrigger time.Time
	// Triggered is false until the first intrusion, standing in for a
	// last trigger time of minus infinity.
	Triggered bool
	// Active indicates whether the alarm is currently raised.
	Active bool
}

// Clock provides the current instant.
// Implementations must return times carrying a monotonic reading
// (as time.Now does) so that cooldowns survive wall-clock adjustments.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the process clock.
type SystemClock struct{}

// Now returns time.Now, which includes the monotonic clock reading.
func (SystemClock) Now() time.Time {
	return time.Now()
}
