package otp

import (
	"errors"
	"time"
)

// DefaultCooldown is how long the resend control stays disabled.
const DefaultCooldown = 30 * time.Second

// ErrCooldownActive is returned when a cooldown is started while one is running.
var ErrCooldownActive = errors.New("resend cooldown still running")

// Cooldown counts down whole seconds after a successful resend.
// The caller delivers one Tick per second.
type Cooldown struct {
	remaining int
}

// Start begins a cooldown of d, rounded up to whole seconds.
func (c *Cooldown) Start(d time.Duration) error {
	if c.Active() {
		return ErrCooldownActive
	}
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 0 {
		secs = 0
	}
	c.remaining = secs
	return nil
}

// Tick consumes one second and reports whether the cooldown is still running.
func (c *Cooldown) Tick() bool {
	if c.remaining > 0 {
		c.remaining--
	}
	return c.Active()
}

// Active reports whether resend is currently disabled.
func (c Cooldown) Active() bool {
	return c.remaining > 0
}

// Remaining returns the seconds left.
func (c Cooldown) Remaining() int {
	return c.remaining
}

// Stop ends the cooldown immediately.
func (c *Cooldown) Stop() {
	c.remaining = 0
}
