package cache

import "context"

// Storage holds all generations. Generation names are opaque strings.
type Storage interface {
	// Create registers a generation; creating an existing one is a no-op.
	Create(ctx context.Context, generation string) error
	// Generations lists every known generation name.
	Generations(ctx context.Context) ([]string, error)
	// DeleteGeneration removes a generation with all its entries.
	DeleteGeneration(ctx context.Context, generation string) error

	Put(ctx context.Context, generation string, e *Entry) error
	Match(ctx context.Context, generation, requestKey string) (*Entry, error)
}
