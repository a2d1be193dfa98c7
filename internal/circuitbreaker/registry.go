package circuitbreaker

import (
	"sync"
	"time"
)

// Registry hands out one breaker per upstream endpoint name.
type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*CircuitBreaker
	threshold int
	timeout   time.Duration
}

func NewRegistry(threshold int, timeout time.Duration) *Registry {
	return &Registry{
		breakers:  make(map[string]*CircuitBreaker),
		threshold: threshold,
		timeout:   timeout,
	}
}

func (r *Registry) Breaker(endpoint string) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[endpoint]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Another goroutine may have created it.
	if cb, exists = r.breakers[endpoint]; exists {
		return cb
	}

	cb = NewCircuitBreaker(r.threshold, r.timeout)
	r.breakers[endpoint] = cb
	return cb
}

// Do runs fn through the breaker of endpoint.
func (r *Registry) Do(endpoint string, fn func() error) error {
	return r.Breaker(endpoint).Do(fn)
}

// DoIf runs fn through the breaker of endpoint, counting only the errors
// failure accepts.
func (r *Registry) DoIf(endpoint string, fn func() error, failure func(error) bool) error {
	return r.Breaker(endpoint).DoIf(fn, failure)
}

func (r *Registry) Stats() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]State, len(r.breakers))
	for name, cb := range r.breakers {
		stats[name] = cb.State()
	}
	return stats
}
