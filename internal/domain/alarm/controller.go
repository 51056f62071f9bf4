package alarm

import "time"

// DefaultCooldown is the minimum on-duration of a raised alarm.
const DefaultCooldown = 3 * time.Second

// Controller is a hysteresis filter over the per-frame intrusion signal.
//
// It is not safe for concurrent use: a single frame loop owns each Controller.
type Controller struct {
	// clock supplies the current instant for trigger and cooldown checks.
	clock Clock
	// cooldown is how long the alarm stays raised after the last trigger.
	cooldown time.Duration
	// state is the current alarm state.
	state State
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the system clock, typically with a fake in tests.
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewController creates an idle controller.
// A non-positive cooldown falls back to DefaultCooldown.
func NewController(cooldown time.Duration, opts ...Option) *Controller {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	c := &Controller{
		clock:    SystemClock{},
		cooldown: cooldown,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Update feeds one frame's intrusion signal and returns whether the alarm is active.
//
// An intrusion raises the alarm (or keeps it raised) and restarts the cooldown.
// Without an intrusion an active alarm is cleared once the cooldown since the
// last trigger has fully elapsed.
func (c *Controller) Update(intrusion bool) bool {
	now := c.clock.Now()

	if intrusion {
		c.state = State{
			LastTrigger: now,
			Triggered:   true,
			Active:      true,
		}

		return true
	}

	if c.state.Active && now.Sub(c.state.LastTrigger) >= c.cooldown {
		c.state.Active = false
	}

	return c.state.Active
}

// Active returns the alarm status as of the last Update.
func (c *Controller) Active() bool {
	return c.state.Active
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	return c.state
}

// Cooldown returns the configured cooldown.
func (c *Controller) Cooldown() time.Duration {
	return c.cooldown
}
