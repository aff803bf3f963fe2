// Package pollpool provides a bounded background worker pool that repeatedly
// pulls work items from a pluggable Source and executes them via a pluggable
// Executor on a capped number of concurrent workers.
//
// The pool is meant to be embedded in a longer-running host process that needs
// to drain a work queue continuously without unbounded goroutine growth and
// without losing in-flight work on shutdown.
//
// Strategies
//   - Elastic (default): a central dispatch loop spawns a one-shot worker
//     cycle per iteration as long as capacity remains.
//   - Fixed (WithFixedWorkers): MaxConcurrency long-lived workers are created
//     at Start, each running its own fetch-execute-backoff loop.
//
// Defaults
// Unless overridden, the following defaults apply to a newly created pool:
//   - MaxConcurrency: 12 * GOMAXPROCS
//   - IdleInterval: 5m (backoff after an empty or failed fetch)
//   - BusyInterval: 1s (backoff after a fetch that yielded an item)
//   - ExitTimeout: 0 (Stop waits indefinitely for in-flight work)
//   - Enabled: true
//   - EventsBufferSize: 1024
//
// Channel lifecycle
// The pool exposes a single Events channel carrying lifecycle and per-item
// notifications. The recommended pattern is to drain Events for as long as the
// pool may run; the pool closes the channel itself during Close, never before.
//
// Shutdown
// Stop requests cooperative shutdown: no new cycles are admitted, and Stop
// waits up to ExitTimeout for in-flight work to drain. A timeout is reported
// via the final ServiceCompleted event (SafeExit=false), not as an error.
// Close is the terminal teardown; the pool cannot be restarted afterwards.
package pollpool
