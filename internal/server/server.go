// Package server provides the transport-level concerns that sit in front
// of the authoritative query path: per-IP rate limiting.
package server

import (
	"sync"
	"time"
)

// RateLimiter is a per-IP token bucket, refilled continuously at rps and
// capped at burst.
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rps      int
	burst    int
	cleanup  time.Duration
	stop     chan struct{}
}

type visitor struct {
	tokens   int
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter and starts its stale-visitor
// cleanup goroutine.
func NewRateLimiter(rps, burst int, cleanup time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rps,
		burst:    burst,
		cleanup:  cleanup,
		stop:     make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// Allow reports whether a request from ip may proceed, consuming one
// token if so.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{tokens: rl.burst - 1, lastSeen: time.Now()}
		return true
	}

	elapsed := time.Since(v.lastSeen)
	if tokensToAdd := int(elapsed.Seconds() * float64(rl.rps)); tokensToAdd > 0 {
		v.tokens += tokensToAdd
		v.lastSeen = time.Now()
	}
	if v.tokens > rl.burst {
		v.tokens = rl.burst
	}
	if v.tokens > 0 {
		v.tokens--
		return true
	}
	return false
}

// Stop halts the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

func (rl *RateLimiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > rl.cleanup {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}
