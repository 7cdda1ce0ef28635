package state

import "time"

// PlayClock accumulates elapsed play time. It never goes backwards.
type PlayClock struct {
	elapsed time.Duration
}

// Advance adds dt to the clock. Non-positive deltas are ignored.
func (c *PlayClock) Advance(dt time.Duration) {
	if dt > 0 {
		c.elapsed += dt
	}
}

// Now returns the total elapsed play time.
func (c *PlayClock) Now() time.Duration {
	return c.elapsed
}

// Seconds returns the play time in whole seconds, rounded up.
func (c *PlayClock) Seconds() int64 {
	s := c.elapsed / time.Second
	if c.elapsed%time.Second != 0 {
		s++
	}
	return int64(s)
}

// Set moves the clock to d. It is used when restoring a save.
func (c *PlayClock) Set(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.elapsed = d
}
