package pollpool

import "time"

// EventKind discriminates pool notifications.
type EventKind int

const (
	// EventWorkerStarted signals that a fixed-strategy worker began its loop.
	EventWorkerStarted EventKind = iota + 1

	// EventWorkerExited signals that a fixed-strategy worker left its loop.
	EventWorkerExited

	// EventNoTask signals a fetch that legitimately returned no item.
	EventNoTask

	// EventBuildFault signals a failed fetch; Err carries the wrapped cause.
	EventBuildFault

	// EventTaskExecuting signals that a worker is about to execute Item.
	EventTaskExecuting

	// EventTaskExecuted signals a finished execution; Duration, Faulted and
	// Err describe the outcome.
	EventTaskExecuted

	// EventServiceCompleted is the final notification of a Start/Stop cycle;
	// SafeExit reports whether all workers drained before Stop returned.
	EventServiceCompleted
)

// String returns the kind's wire-friendly name.
func (k EventKind) String() string {
	switch k {
	case EventWorkerStarted:
		return "worker_started"
	case EventWorkerExited:
		return "worker_exited"
	case EventNoTask:
		return "no_task"
	case EventBuildFault:
		return "build_fault"
	case EventTaskExecuting:
		return "task_executing"
	case EventTaskExecuted:
		return "task_executed"
	case EventServiceCompleted:
		return "service_completed"
	default:
		return "unknown"
	}
}

// Event is a single pool notification. Only the fields relevant to Kind are
// populated; the rest hold zero values.
//
// Ordering: for one worker slot, TaskExecuting always precedes TaskExecuted
// for the same item, and WorkerStarted precedes any task-status event from
// that worker. EventServiceCompleted is the last event of a cleanly drained
// Start/Stop cycle; after a timed-out Stop, late TaskExecuted events from
// still-running workers may follow it.
type Event[P any] struct {
	Kind EventKind

	// Worker identifies the emitting slot: the stable worker index under the
	// fixed strategy, the cycle sequence number under the elastic one, and -1
	// for pool-level events such as ServiceCompleted.
	Worker int

	// Item is set on TaskExecuting and TaskExecuted.
	Item *Item[P]

	// Duration is the wall-clock execute time, set on TaskExecuted.
	Duration time.Duration

	// Faulted marks a TaskExecuted whose execution returned an error.
	Faulted bool

	// Err carries the fetch error (BuildFault) or execute error (TaskExecuted).
	Err error

	// SafeExit is set on ServiceCompleted: true when all workers drained
	// naturally, false when Stop returned on ExitTimeout.
	SafeExit bool
}
