// Package health builds readiness checks for the service's dependencies.
package health

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Checker is a health check function that returns an error if unhealthy
type Checker func() error

// PingFunc is satisfied by store, redis and mongo ping methods
type PingFunc func(ctx context.Context) error

// DefaultTimeout bounds a single dependency ping
const DefaultTimeout = 2 * time.Second

// PingChecker runs ping under timeout and labels failures with name
func PingChecker(name string, ping PingFunc, timeout time.Duration) Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
		return nil
	}
}

// ErrBreakerOpen is reported while a circuit breaker rejects calls
var ErrBreakerOpen = errors.New("circuit breaker open")

// BreakerChecker fails while the breaker reported by state is open
func BreakerChecker(state func() string) Checker {
	return func() error {
		if state() == "open" {
			return ErrBreakerOpen
		}
		return nil
	}
}

// ConnectedChecker fails when connected reports false
func ConnectedChecker(name string, connected func() bool) Checker {
	return func() error {
		if !connected() {
			return fmt.Errorf("%s not connected", name)
		}
		return nil
	}
}

// CompositeChecker combines multiple health checkers into one.
// Checks run in name order; the first failure is returned.
func CompositeChecker(name string, checkers map[string]Checker) Checker {
	return func() error {
		for _, checkName := range sortedNames(checkers) {
			if err := checkers[checkName](); err != nil {
				return fmt.Errorf("%s.%s check failed: %w", name, checkName, err)
			}
		}
		return nil
	}
}

// CachedChecker caches the result of a health check for a given duration.
// Readiness probes hit it on every request, so backends see at most one
// ping per TTL.
type CachedChecker struct {
	checker  Checker
	cacheTTL time.Duration
	now      func() time.Time

	mu         sync.Mutex
	lastCheck  time.Time
	lastResult error
}

// NewCachedChecker creates a new cached health checker
func NewCachedChecker(checker Checker, cacheTTL time.Duration) *CachedChecker {
	return &CachedChecker{
		checker:  checker,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Check runs the health check, using cached result if still valid
func (c *CachedChecker) Check() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.lastCheck.IsZero() && now.Sub(c.lastCheck) < c.cacheTTL {
		return c.lastResult
	}

	c.lastResult = c.checker()
	c.lastCheck = now
	return c.lastResult
}

func sortedNames(checkers map[string]Checker) []string {
	names := make([]string, 0, len(checkers))
	for name := range checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
