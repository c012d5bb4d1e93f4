// Package ratelimit throttles clients with one token bucket per remote address.
// Each route costs a number of tokens; cheap pages are free, image and PDF
// rendering are expensive.
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/juju/ratelimit"

	"github.com/Simplici0/costcalc/internal/metrics"
)

// CostFunc returns the token cost of a request.
type CostFunc func(r *http.Request) int64

// Limiter holds per-client buckets.
type Limiter struct {
	rate     float64
	capacity int64
	cost     CostFunc

	mu      sync.RWMutex
	clients map[string]*ratelimit.Bucket
}

// New returns a Limiter refilling rate tokens per second up to capacity.
func New(rate float64, capacity int64, cost CostFunc) *Limiter {
	if cost == nil {
		cost = DefaultCost
	}
	return &Limiter{
		rate:     rate,
		capacity: capacity,
		cost:     cost,
		clients:  make(map[string]*ratelimit.Bucket),
	}
}

// DefaultCost prices the calculator routes.
func DefaultCost(r *http.Request) int64 {
	switch r.URL.Path {
	case "/", "/health", "/favicon.ico", "/static/app.js", "/static/app.css":
		return 0
	case "/api/calculate", "/api/summary":
		return 1
	case "/qr.png", "/qr/print":
		return 5
	case "/qr/print.pdf":
		return 20
	case "/login":
		return 10
	}
	return 2
}

func (l *Limiter) bucket(client string) *ratelimit.Bucket {
	l.mu.RLock()
	b, ok := l.clients[client]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.clients[client]; !ok {
		b = ratelimit.NewBucketWithRate(l.rate, l.capacity)
		l.clients[client] = b
		metrics.RateLimiterBucketsTotal.Set(float64(len(l.clients)))
	}
	return b
}

// Prune drops the buckets of clients that are back at full capacity.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for client, b := range l.clients {
		if b.Available() >= b.Capacity() {
			delete(l.clients, client)
			removed++
		}
	}
	metrics.RateLimiterBucketsTotal.Set(float64(len(l.clients)))
	return removed
}

// StartPruning prunes every interval until stop is closed.
func (l *Limiter) StartPruning(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				l.Prune()
			}
		}
	}()
}

// Middleware rejects requests with 429 once a client runs out of tokens.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cost := l.cost(r)
		if cost <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		b := l.bucket(clientKey(r))

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(l.capacity, 10))
		if b.TakeAvailable(cost) < cost {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(b.Available(), 10))

		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
