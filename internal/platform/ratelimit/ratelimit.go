// Package ratelimit keeps one token bucket per key, for inbound protection
// of the HTTP gateway and the chat bot.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// Keyed hands out independent limiters per key. Idle keys are dropped by
// Prune.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

// New allows rps requests per second per key with the given burst.
// A non-positive rps disables limiting.
func New(rps float64, burst int) *Keyed {
	if burst < 1 {
		burst = 1
	}
	lim := rate.Limit(rps)
	if rps <= 0 {
		lim = rate.Inf
	}
	return &Keyed{entries: make(map[string]*entry), limit: lim, burst: burst, now: time.Now}
}

// Allow reports whether one more request for key fits the budget now.
func (k *Keyed) Allow(key string) bool {
	if k == nil || k.limit == rate.Inf {
		return true
	}
	k.mu.Lock()
	now := k.now()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(k.limit, k.burst)}
		k.entries[key] = e
	}
	e.seen = now
	k.mu.Unlock()
	return e.lim.AllowN(now, 1)
}

// Prune forgets keys unused for longer than idle and returns how many went.
func (k *Keyed) Prune(idle time.Duration) int {
	if k == nil {
		return 0
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	cutoff := k.now().Add(-idle)
	n := 0
	for key, e := range k.entries {
		if e.seen.Before(cutoff) {
			delete(k.entries, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	if k == nil {
		return 0
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
