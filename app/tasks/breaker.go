package tasks

import (
	"sync"
)

// Breaker counts consecutive task failures across all workers of one
// batch. Check-then-increment happens inside one critical section so
// workers cannot race past the threshold.
type Breaker struct {
	mu        sync.Mutex
	failures  int
	threshold int
}

func NewBreaker(threshold int) *Breaker {
	return &Breaker{threshold: threshold}
}

// Open reports whether the batch should stop dispatching new tasks.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures >= b.threshold
}

// RecordFailure increments the counter and reports whether the breaker
// is now open.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	return b.failures >= b.threshold
}

// RecordSuccess resets the counter. Empty results count as success; the
// upstream API worked.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
