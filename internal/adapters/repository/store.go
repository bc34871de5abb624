// Package repository holds the in-memory counter store.
package repository

import (
	"context"

	"github.com/StacL/tdd/internal/domain/counter"
)

// Store provides read/write access to the counter state. Every method is
// atomic with respect to every other method call on the same name.
type Store interface {
	// Create inserts name with value 0. If name exists, it returns the
	// existing counter unchanged together with counter.ErrAlreadyExists.
	Create(ctx context.Context, name string) (counter.Counter, error)

	// Increment adds one to the counter and returns its new value.
	// Returns counter.ErrNotFound if name is unknown.
	Increment(ctx context.Context, name string) (counter.Counter, error)

	// Get returns the current value of the counter.
	// Returns counter.ErrNotFound if name is unknown.
	Get(ctx context.Context, name string) (counter.Counter, error)

	// Delete removes the counter.
	// Returns counter.ErrNotFound if name is unknown.
	Delete(ctx context.Context, name string) error

	// Count returns the number of counters in the store.
	Count(ctx context.Context) int

	// Close stops background work owned by the store.
	Close() error
}
