package simpleapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without calling SimpleAPI while the breaker is open.
var ErrCircuitOpen = errors.New("SimpleAPI deshabilitada temporalmente por fallas consecutivas")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// Breaker stops calling SimpleAPI after maxFailures consecutive failures.
// Every call logs into the SII with the stored password, so repeated
// rejections must not keep hitting it. After cooldown one trial call is let
// through; its outcome closes or reopens the circuit.
type Breaker struct {
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
	trialing bool
}

// NewBreaker creates a closed breaker. Non-positive arguments get defaults.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	if cooldown <= 0 {
		cooldown = 5 * time.Minute
	}
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// Execute runs fn unless the circuit is open. Failures caused by the
// caller's own context ending are not counted.
func (b *Breaker) Execute(ctx context.Context, fn func() error) error {
	if err := b.acquire(); err != nil {
		return err
	}

	err := fn()
	if err != nil && ctx.Err() != nil {
		b.release()
		return err
	}
	b.record(err)
	return err
}

func (b *Breaker) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		remaining := b.cooldown - b.now().Sub(b.openedAt)
		if remaining > 0 {
			return fmt.Errorf("%w, reintente en %s", ErrCircuitOpen, remaining.Round(time.Second))
		}
		b.state = breakerHalfOpen
		b.trialing = true
	case breakerHalfOpen:
		if b.trialing {
			return fmt.Errorf("%w, verificación en curso", ErrCircuitOpen)
		}
		b.trialing = true
	}
	return nil
}

// release gives back a half-open trial that ended without a verdict.
func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trialing = false
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trialing = false

	if err == nil {
		b.state = breakerClosed
		b.failures = 0
		return
	}

	b.failures++
	if b.state == breakerHalfOpen || b.failures >= b.maxFailures {
		b.state = breakerOpen
		b.openedAt = b.now()
	}
}

// Open reports whether calls are currently rejected.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == breakerOpen && b.now().Sub(b.openedAt) < b.cooldown
}

// Ping returns ErrCircuitOpen while calls are rejected. It never contacts
// SimpleAPI, so the health endpoint can report the circuit without logging
// into the SII.
func (b *Breaker) Ping(context.Context) error {
	if b.Open() {
		return ErrCircuitOpen
	}
	return nil
}
