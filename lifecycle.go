package pollpool

import "sync"

// closeCoordinator encapsulates the terminal teardown sequence for Pool.
// It is a wiring helper: it doesn't own state; it orchestrates the stop,
// straggler wait, and channel closure in a deterministic order.
//
// Close is safe for concurrent calls; the sequence executes exactly once:
// 1) stop the pool and mark it disposed
// 2) cancel the base context to abort straggler cycles
// 3) unblock pending event sends (late events are dropped)
// 4) wait for the last straggler to signal drain
// 5) close the events channel
type closeCoordinator struct {
	stop           func() (drained <-chan struct{}, wait bool)
	abort          func()
	unblockSenders func()
	closeEvents    func()

	once sync.Once
}

func newCloseCoordinator(
	stop func() (<-chan struct{}, bool),
	abort func(),
	unblockSenders func(),
	closeEvents func(),
) *closeCoordinator {
	return &closeCoordinator{
		stop:           stop,
		abort:          abort,
		unblockSenders: unblockSenders,
		closeEvents:    closeEvents,
	}
}

func (c *closeCoordinator) Close() {
	c.once.Do(func() {
		drained, wait := c.stop()
		if c.abort != nil {
			c.abort()
		}
		if c.unblockSenders != nil {
			c.unblockSenders()
		}
		if wait && drained != nil {
			<-drained
		}
		if c.closeEvents != nil {
			c.closeEvents()
		}
	})
}
