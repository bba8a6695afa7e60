package topicblog

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// FallbackLimiter rate-limits on-demand page generation per IP address.
// Each IP gets a token bucket refilled at max tokens per window.
type FallbackLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	window   time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewFallbackLimiter creates a FallbackLimiter that allows max generations
// per window. A max below one disables limiting.
func NewFallbackLimiter(max int, window time.Duration) *FallbackLimiter {
	l := &FallbackLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Inf,
		burst:    max,
		window:   window,
		done:     make(chan struct{}),
	}
	if max > 0 {
		l.limit = rate.Every(window / time.Duration(max))
	}
	go l.cleanup()
	return l
}

func (l *FallbackLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
		}
		cutoff := time.Now().Add(-l.window)
		l.mu.Lock()
		for ip, v := range l.visitors {
			if v.seen.Before(cutoff) {
				delete(l.visitors, ip)
			}
		}
		l.mu.Unlock()
	}
}

// Allow reports whether ip may trigger another generation and consumes a
// token if so.
func (l *FallbackLimiter) Allow(ip string) bool {
	if l == nil || l.limit == rate.Inf {
		return true
	}
	l.mu.Lock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.seen = time.Now()
	l.mu.Unlock()
	return v.limiter.Allow()
}

// Close stops the cleanup goroutine.
func (l *FallbackLimiter) Close() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.done) })
}
