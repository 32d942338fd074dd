package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"pinquiz/internal/domain"
)

// PinLength is the number of decimal digits in a quiz pin.
const PinLength = 8

// DigitSource yields uniform integers in [0, n). *rand.Rand satisfies it.
type DigitSource interface {
	Intn(n int) int
}

// PinChecker reports whether a pin is already assigned.
type PinChecker interface {
	PinExists(ctx context.Context, pin string) (bool, error)
}

// PinAllocator draws random numeric pins and retries until one is free.
type PinAllocator struct {
	mu          sync.Mutex
	src         DigitSource
	maxAttempts int
}

func NewPinAllocator(maxAttempts int) *PinAllocator {
	return NewPinAllocatorWithSource(rand.New(rand.NewSource(time.Now().UnixNano())), maxAttempts)
}

// NewPinAllocatorWithSource is used by tests to make pins deterministic.
func NewPinAllocatorWithSource(src DigitSource, maxAttempts int) *PinAllocator {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &PinAllocator{src: src, maxAttempts: maxAttempts}
}

// Allocate returns a pin absent from the checker's pin set at call time. The caller
// must still insert under the unique constraint; a conflict there is a collision too.
func (a *PinAllocator) Allocate(ctx context.Context, checker PinChecker) (string, error) {
	for i := 0; i < a.maxAttempts; i++ {
		pin := a.next()
		taken, err := checker.PinExists(ctx, pin)
		if err != nil {
			return "", err
		}
		if !taken {
			return pin, nil
		}
	}
	return "", domain.ErrAllocationExhausted
}

func (a *PinAllocator) next() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	buf := make([]byte, PinLength)
	for i := range buf {
		buf[i] = byte('0' + a.src.Intn(10))
	}
	return string(buf)
}
