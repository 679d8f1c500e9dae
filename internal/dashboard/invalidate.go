package dashboard

import (
	"context"

	"github.com/jazmin7552/p2/internal/events"
)

// Invalidator is an events.Publisher that drops cached figures whenever an
// order or one of its lines changes.
type Invalidator struct {
	cache *Cache
}

// NewInvalidator builds the publisher around cache.
func NewInvalidator(cache *Cache) Invalidator {
	return Invalidator{cache: cache}
}

func (i Invalidator) Publish(ctx context.Context, _ events.Event) error {
	return i.cache.Bump(ctx)
}

func (Invalidator) Close() error { return nil }
