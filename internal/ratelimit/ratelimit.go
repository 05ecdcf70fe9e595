// Package ratelimit caps how many paid model requests a process makes per window.
package ratelimit

import (
	"errors"
	"sync"
	"time"
)

// ErrExhausted is returned by Use once the window's quota is spent.
var ErrExhausted = errors.New("request budget exhausted")

// Budget counts requests in a fixed window. A max of 0 means unlimited.
type Budget struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	used      int
	cacheHits int
	resetTime time.Time
	now       func() time.Time
}

func NewBudget(limit int, window time.Duration) *Budget {
	b := &Budget{max: limit, window: window, now: time.Now}
	b.resetTime = b.now().Add(window)
	return b
}

// Use takes one request from the budget.
func (b *Budget) Use() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()

	if b.max > 0 && b.used >= b.max {
		return ErrExhausted
	}
	b.used++
	return nil
}

// RecordCacheHit counts a request answered without spending budget.
func (b *Budget) RecordCacheHit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cacheHits++
}

func (b *Budget) GetStats() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()

	return map[string]any{
		"used":       b.used,
		"limit":      b.max,
		"cache_hits": b.cacheHits,
		"reset_time": b.resetTime,
	}
}

func (b *Budget) checkReset() {
	if now := b.now(); now.After(b.resetTime) {
		b.used = 0
		b.cacheHits = 0
		b.resetTime = now.Add(b.window)
	}
}
