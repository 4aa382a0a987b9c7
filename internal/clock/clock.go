// Package clock is the daemon's time source. Status uptime and watchdog
// sample times go through a Clock so tests can pin them; debug log lines
// are stamped with Uptime.
package clock

import (
	"sync"
	"time"
)

// Clock reports wall time.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// RealClock reads the system clock.
type RealClock struct{}

func (*RealClock) Now() time.Time { return time.Now() }

func (*RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// MockClock only moves when Advance is called.
type MockClock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewMockClock returns a clock stopped at t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

func (c *MockClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Advance moves the clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

// Now returns the system time. Code without an injected Clock uses it.
func Now() time.Time {
	return time.Now()
}

// Since returns the system time elapsed since t.
func Since(t time.Time) time.Duration {
	return time.Since(t)
}

var processStart = time.Now()
