// Package circuitbreaker stops calling an upstream endpoint after repeated
// failures and probes it again once a timeout has passed.
//
// A breaker has three states:
//
//   - CLOSED: calls pass through
//   - OPEN: calls fail fast with ErrOpen
//   - HALF-OPEN: the next call is a probe
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(5, 30*time.Second)
//	err := registry.Do("token", func() error {
//	    return exchange(ctx, code)
//	})
package circuitbreaker
