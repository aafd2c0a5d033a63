// Package ratelimit provides a per-client token bucket limiter for endpoints
// that spend real money, like recommendation runs against a paid model API.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// PerClient hands each client key its own token bucket. Keys are typically
// client IPs; unknown keys get a fresh bucket on first use.
type PerClient struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewPerClient creates a limiter allowing rps requests per second with the
// given burst per client key.
func NewPerClient(rps float64, burst int) *PerClient {
	return &PerClient{
		clients: make(map[string]*rate.Limiter),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

// Allow reports whether a request for the given key may proceed, consuming a
// token when it does.
func (p *PerClient) Allow(key string) bool {
	return p.limiter(key).Allow()
}

func (p *PerClient) limiter(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.clients[key]
	if !ok {
		l = rate.NewLimiter(p.limit, p.burst)
		p.clients[key] = l
	}
	return l
}
