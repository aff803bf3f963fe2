package pollpool

import "context"

// Source produces work items on demand.
//
// Fetch returns the next item, or (nil, nil) when no work is currently
// available; the two outcomes are distinct from a fetch error. When the pool
// runs the elastic strategy, Fetch may be called concurrently up to
// MaxConcurrency times; the implementation owns its internal synchronization.
type Source[P any] interface {
	Fetch(ctx context.Context) (*Item[P], error)
}

// Executor performs the domain action for a fetched item. Errors are captured
// by the executing worker and reported via a TaskExecuted notification; they
// never crash the pool and are never retried by it.
type Executor[P any] interface {
	Execute(ctx context.Context, item *Item[P]) error
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc[P any] func(ctx context.Context) (*Item[P], error)

func (f SourceFunc[P]) Fetch(ctx context.Context) (*Item[P], error) { return f(ctx) }

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc[P any] func(ctx context.Context, item *Item[P]) error

func (f ExecutorFunc[P]) Execute(ctx context.Context, item *Item[P]) error { return f(ctx, item) }
