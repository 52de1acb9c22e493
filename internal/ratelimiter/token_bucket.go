package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TokenBucketLimiter gives every key its own bucket refilled at
// RequestsPerTimeFrame per TimeFrame, with a burst of RequestsPerTimeFrame.
type TokenBucketLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	idle    time.Duration
	stop    chan struct{}
	once    sync.Once
}

func NewTokenBucketLimiter(cfg Config) *TokenBucketLimiter {
	burst := cfg.RequestsPerTimeFrame
	if burst <= 0 {
		burst = 1
	}
	frame := cfg.TimeFrame
	if frame <= 0 {
		frame = time.Second
	}

	rl := &TokenBucketLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(float64(burst) / frame.Seconds()),
		burst:   burst,
		idle:    10 * frame,
		stop:    make(chan struct{}),
	}
	go rl.janitor(frame)
	return rl
}

func (rl *TokenBucketLimiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()

	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// Close stops the eviction goroutine.
func (rl *TokenBucketLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *TokenBucketLimiter) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.evict(time.Now().Add(-rl.idle))
		case <-rl.stop:
			return
		}
	}
}

func (rl *TokenBucketLimiter) evict(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

func (rl *TokenBucketLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}
