// Package guard paces and protects calls to a vision provider.
//
// Requests are spaced by a token bucket sized in requests per minute. A
// throttled response (HTTP 429) pauses all further requests for the
// server's Retry-After hint. Consecutive failures trip a circuit breaker,
// after which calls fail fast with domain.ErrVisionUnavailable until the
// breaker's timeout elapses.
package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/ai/apiclient"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Guard implements the interface.
var _ driven.VisionService = (*Guard)(nil)

// Defaults.
const (
	DefaultMaxFailures  = 5
	DefaultOpenTimeout  = time.Minute
	DefaultThrottleWait = 30 * time.Second
)

// Config tunes a Guard.
type Config struct {
	// RequestsPerMinute spaces requests. Zero or less disables pacing.
	RequestsPerMinute int

	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures int

	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration

	// ThrottleWait is the pause after a 429 without a Retry-After hint.
	ThrottleWait time.Duration
}

// Guard wraps a VisionService.
type Guard struct {
	next         driven.VisionService
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker
	throttleWait time.Duration

	mu      sync.Mutex
	retryAt time.Time
}

// New wraps next with pacing and a circuit breaker.
func New(next driven.VisionService, cfg Config) *Guard {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}
	if cfg.ThrottleWait <= 0 {
		cfg.ThrottleWait = DefaultThrottleWait
	}

	g := &Guard{next: next, throttleWait: cfg.ThrottleWait}
	if cfg.RequestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	maxFailures := uint32(cfg.MaxFailures)
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "vision:" + next.ModelName(),
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// A cancelled run says nothing about the provider.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit %s: %s -> %s", name, from, to)
		},
	})
	return g
}

// Describe waits for a request slot and forwards the call through the breaker.
func (g *Guard) Describe(ctx context.Context, image driven.Image, prompt string) (string, error) {
	if err := g.waitThrottle(ctx); err != nil {
		return "", err
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for vision slot: %w", err)
		}
	}

	reply, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.Describe(ctx, image, prompt)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "", fmt.Errorf("%w: %w", domain.ErrVisionUnavailable, err)
	case errors.Is(err, domain.ErrRateLimited):
		g.throttle(apiclient.RetryAfter(err))
		return "", err
	case err != nil:
		return "", err
	}
	return reply.(string), nil
}

// State reports the breaker state, e.g. "closed" or "open".
func (g *Guard) State() string {
	return g.breaker.State().String()
}

func (g *Guard) throttle(wait time.Duration) {
	if wait <= 0 {
		wait = g.throttleWait
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if until := time.Now().Add(wait); until.After(g.retryAt) {
		g.retryAt = until
	}
	logger.Warn("Vision provider throttled, pausing %s", wait)
}

func (g *Guard) waitThrottle(ctx context.Context) error {
	g.mu.Lock()
	retryAt := g.retryAt
	g.mu.Unlock()

	wait := time.Until(retryAt)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ModelName returns the wrapped model name.
func (g *Guard) ModelName() string {
	return g.next.ModelName()
}

// Ping bypasses pacing and the breaker.
func (g *Guard) Ping(ctx context.Context) error {
	return g.next.Ping(ctx)
}

// Close closes the wrapped service.
func (g *Guard) Close() error {
	return g.next.Close()
}
