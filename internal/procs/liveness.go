package procs

import (
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a probe verdict is trusted.
	DefaultTTL = 5 * time.Second
	// DefaultCleanupInterval is how often every cached PID is re-probed.
	DefaultCleanupInterval = 60 * time.Second
)

// Probe reports whether a process with the given PID exists.
type Probe func(pid int) bool

type verdict struct {
	alive     bool
	checkedAt time.Time
}

// LivenessCache memoizes process liveness probes for a short TTL.
// Dead verdicts are cached as well; a periodic sweep drops dead PIDs so the
// cache cannot grow without bound.
type LivenessCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	interval  time.Duration
	probe     Probe
	now       func() time.Time
	entries   map[int]verdict
	lastSweep time.Time
}

// NewLivenessCache creates a cache. Non-positive durations select the
// defaults and a nil probe selects the platform probe.
func NewLivenessCache(ttl, cleanupInterval time.Duration, probe Probe) *LivenessCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	if probe == nil {
		probe = ProcessAlive
	}
	return &LivenessCache{
		ttl:      ttl,
		interval: cleanupInterval,
		probe:    probe,
		now:      time.Now,
		entries:  make(map[int]verdict),
	}
}

// IsAlive returns the cached verdict for pid when it is younger than the TTL,
// otherwise probes the process.
func (c *LivenessCache) IsAlive(pid int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)

	if v, ok := c.entries[pid]; ok && now.Sub(v.checkedAt) < c.ttl {
		return v.alive
	}
	alive := c.safeProbe(pid)
	c.entries[pid] = verdict{alive: alive, checkedAt: now}
	return alive
}

func (c *LivenessCache) sweepLocked(now time.Time) {
	if c.lastSweep.IsZero() {
		c.lastSweep = now
		return
	}
	if now.Sub(c.lastSweep) < c.interval {
		return
	}
	for pid := range c.entries {
		if c.safeProbe(pid) {
			c.entries[pid] = verdict{alive: true, checkedAt: now}
		} else {
			delete(c.entries, pid)
		}
	}
	c.lastSweep = now
}

// safeProbe treats a panicking probe as "not alive".
func (c *LivenessCache) safeProbe(pid int) (alive bool) {
	defer func() {
		if recover() != nil {
			alive = false
		}
	}()
	return c.probe(pid)
}

// Clear drops every cached verdict.
func (c *LivenessCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int]verdict)
	c.lastSweep = time.Time{}
}

// Len returns the number of cached PIDs.
func (c *LivenessCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
