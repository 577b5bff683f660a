package resource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when the attempt limiter refuses a request.
var ErrRateLimited = errors.New("resource: rate limited")

// Config holds resource limits.
type Config struct {
	// MaxConcurrentScans is the number of scans that may run at once.
	// If 0, defaults to 1.
	MaxConcurrentScans int64

	// AttemptsPerSecond is the sustained identification rate.
	// If 0, unlimited.
	AttemptsPerSecond float64

	// Burst is the number of attempts allowed above the sustained rate.
	// If 0, defaults to max(1, AttemptsPerSecond).
	Burst int

	// FailFast makes Admit refuse immediately instead of waiting for a
	// token or a free slot.
	FailFast bool
}

// Controller manages admission of identification attempts.
type Controller struct {
	cfg Config

	scanSem *semaphore.Weighted
	limiter *rate.Limiter // nil if unlimited

	inFlight atomic.Int64
	rejected atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentScans <= 0 {
		cfg.MaxConcurrentScans = 1
	}

	c := &Controller{
		cfg:     cfg,
		scanSem: semaphore.NewWeighted(cfg.MaxConcurrentScans),
	}

	if cfg.AttemptsPerSecond > 0 {
		if cfg.Burst <= 0 {
			cfg.Burst = max(1, int(cfg.AttemptsPerSecond))
			c.cfg.Burst = cfg.Burst
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.AttemptsPerSecond), cfg.Burst)
	}

	return c
}

// Config returns the effective limits.
func (c *Controller) Config() Config {
	return c.cfg
}

// Acquire admits one attempt. It waits for a rate-limiter token and then for a
// scan slot; ctx cancellation aborts either wait. The returned function
// releases the slot and must be called exactly once.
func (c *Controller) Acquire(ctx context.Context) (func(), error) {
	if c == nil {
		return func() {}, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.rejected.Add(1)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// Wait fails early when the deadline is closer than the next token.
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}

	if err := c.scanSem.Acquire(ctx, 1); err != nil {
		c.rejected.Add(1)
		return nil, err
	}
	c.inFlight.Add(1)

	var released atomic.Bool
	return func() {
		if released.CompareAndSwap(false, true) {
			c.inFlight.Add(-1)
			c.scanSem.Release(1)
		}
	}, nil
}

// Admit applies the configured admission mode: TryAcquire when FailFast is
// set, Acquire otherwise.
func (c *Controller) Admit(ctx context.Context) (func(), error) {
	if c == nil {
		return func() {}, nil
	}
	if c.cfg.FailFast {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return c.TryAcquire()
	}
	return c.Acquire(ctx)
}

// TryAcquire admits one attempt without blocking. It returns ErrRateLimited
// when either the limiter or the scan slots are exhausted.
func (c *Controller) TryAcquire() (func(), error) {
	if c == nil {
		return func() {}, nil
	}

	if c.limiter != nil && !c.limiter.Allow() {
		c.rejected.Add(1)
		return nil, ErrRateLimited
	}
	if !c.scanSem.TryAcquire(1) {
		c.rejected.Add(1)
		return nil, ErrRateLimited
	}
	c.inFlight.Add(1)

	var released atomic.Bool
	return func() {
		if released.CompareAndSwap(false, true) {
			c.inFlight.Add(-1)
			c.scanSem.Release(1)
		}
	}, nil
}

// InFlight returns the number of admitted attempts not yet released.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

// Rejected returns the number of attempts refused or abandoned while waiting.
func (c *Controller) Rejected() int64 {
	if c == nil {
		return 0
	}
	return c.rejected.Load()
}
