// Package ratelimit implements a per-client fixed-window request limiter.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

// Config holds the limiter settings.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// Limiter counts requests per client key in one-minute windows. Entries for
// idle clients are swept by a background goroutine until Stop is called.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	limit       int
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type window struct {
	startedAt time.Time
	count     int
}

func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	l := &Limiter{
		windows:     make(map[string]*window),
		limit:       config.RequestsPerMinute,
		stopCleanup: make(chan struct{}),
	}
	go l.sweep(config.CleanupInterval)
	return l
}

// Allow records one request for the client and reports whether it stays
// within the window limit.
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[client]
	if !ok || now.Sub(w.startedAt) > time.Minute {
		l.windows[client] = &window{startedAt: now, count: 1}
		return true
	}

	w.count++
	return w.count <= l.limit
}

// ActiveClients returns the number of tracked windows.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Stop terminates the sweep goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

func (l *Limiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.dropStale()
		case <-l.stopCleanup:
			return
		}
	}
}

// dropStale removes windows that have been idle long enough to have reset
// anyway.
func (l *Limiter) dropStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for client, w := range l.windows {
		if w.startedAt.Before(cutoff) {
			delete(l.windows, client)
		}
	}
}

// Middleware gates requests through the limiter, keyed by the extracted
// client address. onLimit renders the rejection; nil falls back to a plain
// 429.
func (l *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(extractIP(r)) {
				if onLimit != nil {
					onLimit(w, r)
					return
				}
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
