package application

import (
	"math"
	"time"
)

const (
	DefaultBackoffFloor   = time.Second
	DefaultBackoffFactor  = 1.8
	DefaultBackoffCeiling = 30 * time.Second
)

// Backoff computes reconnect delays. The delay after the (n+1)th consecutive
// failure is min(Floor*Factor^n, Ceiling).
type Backoff struct {
	Floor    time.Duration
	Factor   float64
	Ceiling  time.Duration
	failures int
}

func NewBackoff(floor, ceiling time.Duration, factor float64) *Backoff {
	if floor <= 0 {
		floor = DefaultBackoffFloor
	}
	if ceiling < floor {
		ceiling = floor
	}
	if factor < 1 {
		factor = DefaultBackoffFactor
	}
	return &Backoff{Floor: floor, Factor: factor, Ceiling: ceiling}
}

func (b *Backoff) Delay(n int) time.Duration {
	d := float64(b.Floor) * math.Pow(b.Factor, float64(n))
	if d >= float64(b.Ceiling) || math.IsInf(d, 1) {
		return b.Ceiling
	}
	return time.Duration(d)
}

// Next returns the delay for the current failure and records it.
func (b *Backoff) Next() time.Duration {
	d := b.Delay(b.failures)
	b.failures++
	return d
}

func (b *Backoff) Reset() {
	b.failures = 0
}

func (b *Backoff) Failures() int {
	return b.failures
}
