// Package clock abstracts wall clock reads so that timing logic can be
// driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current wall clock time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FakeClock is a manually advanced clock.
type FakeClock struct {
	lock sync.Mutex
	now  time.Time
}

// NewFakeClock creates a FakeClock starting at the given time.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = t
}

// UnixMilli converts a wall clock time to the millisecond timestamps used on the wire.
func UnixMilli(t time.Time) int64 {
	return t.UnixMilli()
}
