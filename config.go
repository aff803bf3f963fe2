package pollpool

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/ygrebnov/errorc"

	"github.com/mkravets/pollpool/metrics"
)

// saturationPoll is the shortened dispatch wait used while the pool is at
// full capacity: there is no point sleeping a whole interval when the only
// thing to wait for is a slot to free up.
const saturationPoll = 100 * time.Millisecond

// config holds Pool configuration. It is assembled by New from options and is
// effectively immutable while the pool runs.
type config struct {
	// name labels the pool in logs and derived worker names. Must be non-empty.
	name string

	// maxConcurrency caps simultaneously active worker cycles.
	// Default: 12 * GOMAXPROCS.
	maxConcurrency int

	// idleInterval is the dispatch backoff after an empty or failed fetch.
	// Default: 5m.
	idleInterval time.Duration

	// busyInterval is the dispatch backoff after a fetch that yielded an item.
	// Default: 1s.
	busyInterval time.Duration

	// exitTimeout bounds how long Stop waits for in-flight work to drain.
	// Zero means wait indefinitely. Default: 0.
	exitTimeout time.Duration

	// enabled gates Start. A disabled pool logs and ignores Start.
	// Default: true.
	enabled bool

	// fixed selects the fixed strategy: maxConcurrency long-lived workers
	// instead of ephemeral dispatch cycles. Default: false (elastic).
	fixed bool

	// eventsBufferSize is the Events channel buffer. Default: 1024.
	eventsBufferSize int

	logger  *slog.Logger
	metrics metrics.Provider
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		maxConcurrency:   12 * runtime.GOMAXPROCS(0),
		idleInterval:     5 * time.Minute,
		busyInterval:     time.Second,
		exitTimeout:      0, // wait indefinitely
		enabled:          true,
		fixed:            false,
		eventsBufferSize: 1024,
		logger:           nil, // discard, see New
		metrics:          metrics.NewNoopProvider(),
	}
}

// validateConfig checks the invariants New promises to fail fast on.
func validateConfig(cfg *config) error {
	if cfg.name == "" {
		return errorc.With(ErrInvalidConfig, errorc.String("", "pool name must not be empty"))
	}
	if cfg.maxConcurrency < 1 {
		return errorc.With(ErrInvalidConfig, errorc.String("", "max concurrency must be positive"))
	}
	if cfg.idleInterval < 0 || cfg.busyInterval < 0 || cfg.exitTimeout < 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("", "intervals must not be negative"))
	}
	return nil
}
