package ws

import (
	"sync"
	"time"

	"github.com/codepals/collab/internal/core"
)

// EventRateLimiter bounds how many inbound events one connection may
// emit per sliding window. Over-limit events are dropped by the
// controller, never the connection itself.
type EventRateLimiter struct {
	mu       sync.Mutex
	history  map[core.ConnID][]time.Time
	limit    int
	interval time.Duration
}

func NewEventRateLimiter(limit int, interval time.Duration) *EventRateLimiter {
	return &EventRateLimiter{
		history:  make(map[core.ConnID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *EventRateLimiter) Allow(id core.ConnID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[id]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[id] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[id] = fresh
	return true
}

func (rl *EventRateLimiter) Forget(id core.ConnID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, id)
}
