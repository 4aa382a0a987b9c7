package metrics

import (
	"context"
	"sync"
	"time"

	"grimm.is/spring/internal/clock"
	"grimm.is/spring/internal/logging"
)

// InterfaceLister counts interfaces for the periodic sample.
type InterfaceLister interface {
	InterfaceCount(ctx context.Context) (int, error)
}

// Snapshot is the last sampled state.
type Snapshot struct {
	Uptime     time.Duration `json:"uptime"`
	Interfaces int           `json:"interfaces"`
	Samples    uint64        `json:"samples"`
	Failures   uint64        `json:"failures"`
	LastUpdate time.Time     `json:"last_update"`
}

// Collector is the daemon watchdog: once per interval it samples uptime and
// the interface count into the registry until its context is cancelled.
type Collector struct {
	registry *Registry
	lister   InterfaceLister
	logger   *logging.Logger
	interval time.Duration
	uptime   func() time.Duration
	clock    clock.Clock

	mu   sync.RWMutex
	snap Snapshot
}

// NewCollector creates a new collector. lister may be nil.
func NewCollector(logger *logging.Logger, lister InterfaceLister, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = time.Second
	}
	return &Collector{
		registry: Get(),
		lister:   lister,
		logger:   logger,
		interval: interval,
		uptime:   clock.Uptime,
		clock:    &clock.RealClock{},
	}
}

// SetClock replaces the time source used to stamp samples.
func (c *Collector) SetClock(clk clock.Clock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clk
}

// Run samples once immediately, then every interval until ctx is done.
func (c *Collector) Run(ctx context.Context) {
	c.logger.Info("Starting watchdog", "interval", c.interval.String())

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect(ctx)
	for {
		select {
		case <-ticker.C:
			c.collect(ctx)
		case <-ctx.Done():
			c.logger.Info("Stopping watchdog")
			return
		}
	}
}

func (c *Collector) collect(ctx context.Context) {
	up := c.uptime()
	c.registry.Uptime.Set(up.Seconds())

	var (
		n   int
		err error
	)
	if c.lister != nil {
		n, err = c.lister.InterfaceCount(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap.Samples++
	c.snap.Uptime = up
	c.snap.LastUpdate = c.clock.Now()

	if c.lister == nil {
		return
	}
	if err != nil {
		c.snap.Failures++
		c.logger.Warn("Failed to count interfaces", "error", err)
		return
	}
	c.snap.Interfaces = n
	c.registry.Interfaces.Set(float64(n))
}

// Snapshot returns a copy of the last sample.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}
