package testutil

import (
	"sync"
	"time"
)

// FrameClock hands out fixed-length frames for driving a session in tests.
//
// Unlike the session's play clock, FrameClock can be reset for test reuse,
// so the same scenario produces the same frame numbers on every run.
type FrameClock struct {
	mu    sync.Mutex
	step  time.Duration
	frame int64
}

// NewFrameClock creates a clock whose frames last step. The first call to
// Tick returns frame 1.
func NewFrameClock(step time.Duration) *FrameClock {
	return &FrameClock{step: step}
}

// Tick advances one frame and returns its number and length.
func (c *FrameClock) Tick() (int64, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame++
	return c.frame, c.step
}

// Frame returns the current frame number without advancing.
func (c *FrameClock) Frame() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Elapsed returns the total time covered by the frames ticked so far.
func (c *FrameClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Duration(c.frame) * c.step
}

// FramesFor returns how many frames cover at least d.
func (c *FrameClock) FramesFor(d time.Duration) int {
	if c.step <= 0 || d <= 0 {
		return 0
	}
	return int((d + c.step - 1) / c.step)
}

// Reset returns the clock to frame 0.
func (c *FrameClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = 0
}
