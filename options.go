package pollpool

import (
	"log/slog"
	"time"

	"github.com/ygrebnov/errorc"

	"github.com/mkravets/pollpool/metrics"
)

// Option configures a Pool. Use New(ctx, name, source, executor, opts...) to
// construct a pool via options. Options return an error on invalid input
// instead of panicking.
type Option func(*config) error

// WithMaxConcurrency caps the number of simultaneously active worker cycles
// (must be > 0). Default: 12 * GOMAXPROCS.
func WithMaxConcurrency(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMaxConcurrency requires n > 0"))
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithIdleInterval sets the dispatch backoff used after an empty or failed
// fetch (default 5m).
func WithIdleInterval(d time.Duration) Option {
	return func(cfg *config) error {
		if d < 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithIdleInterval requires d >= 0"))
		}
		cfg.idleInterval = d
		return nil
	}
}

// WithBusyInterval sets the dispatch backoff used after a fetch that yielded
// an item (default 1s).
func WithBusyInterval(d time.Duration) Option {
	return func(cfg *config) error {
		if d < 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithBusyInterval requires d >= 0"))
		}
		cfg.busyInterval = d
		return nil
	}
}

// WithExitTimeout bounds how long Stop waits for in-flight work to drain.
// Zero (the default) waits indefinitely.
func WithExitTimeout(d time.Duration) Option {
	return func(cfg *config) error {
		if d < 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithExitTimeout requires d >= 0"))
		}
		cfg.exitTimeout = d
		return nil
	}
}

// WithDisabled constructs the pool in a disabled state: Start logs and
// returns without effect until the pool is recreated enabled.
func WithDisabled() Option {
	return func(cfg *config) error { cfg.enabled = false; return nil }
}

// WithFixedWorkers selects the fixed strategy: MaxConcurrency long-lived
// workers created at Start, each running its own fetch-execute-backoff loop.
func WithFixedWorkers() Option {
	return func(cfg *config) error { cfg.fixed = true; return nil }
}

// WithEventsBuffer sets the Events channel buffer size (default 1024).
func WithEventsBuffer(size int) Option {
	return func(cfg *config) error {
		if size < 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithEventsBuffer requires size >= 0"))
		}
		cfg.eventsBufferSize = size
		return nil
	}
}

// WithLogger sets the structured logger used by the pool and its workers.
// The default discards all records.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.logger = l
		return nil
	}
}

// WithMetrics sets the metrics provider the pool records instruments with.
// The default discards all measurements.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.metrics = p
		return nil
	}
}
