// Package ratelimit keeps token buckets keyed by arbitrary strings, each with
// its own per-minute budget.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	perMin   int
	lastSeen time.Time
}

type Keyed struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	idleTTL time.Duration
	now     func() time.Time
}

func New(idleTTL time.Duration) *Keyed {
	return &Keyed{
		buckets: make(map[string]*bucket),
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Tests only.
func (k *Keyed) WithClock(now func() time.Time) *Keyed {
	k.now = now
	return k
}

// Allow spends one token from key's bucket. The bucket refills at perMinute
// per minute with a burst of perMinute. A changed budget replaces the bucket.
// perMinute <= 0 means unlimited.
func (k *Keyed) Allow(key string, perMinute int) bool {
	if perMinute <= 0 {
		return true
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	b, ok := k.buckets[key]
	if !ok || b.perMin != perMinute {
		b = &bucket{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
			perMin:  perMinute,
		}
		k.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Sweep drops buckets idle longer than the TTL.
func (k *Keyed) Sweep() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	removed := 0
	for key, b := range k.buckets {
		if now.Sub(b.lastSeen) > k.idleTTL {
			delete(k.buckets, key)
			removed++
		}
	}
	return removed
}

func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

// Run sweeps on every interval until ctx is done.
func (k *Keyed) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			k.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
