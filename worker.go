package pollpool

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// worker runs fetch→execute→report cycles. Under the elastic strategy a
// worker lives for exactly one cycle; under the fixed strategy it owns a
// loop (run) for the pool's whole running period.
type worker[P any] struct {
	index    int
	name     string
	source   Source[P]
	executor Executor[P]
	publish  func(Event[P])
	// markRapid reports the fetch outcome to the pool the moment it is
	// known, so the dispatch cadence tracks fetches, not executions.
	markRapid func(fetched bool)
	logger    *slog.Logger
	inst      *instruments
}

// cycle performs one fetch→execute→report pass. It reports true when the
// fetch yielded an item, which selects the busy backoff for the next cycle.
// The fetch outcome is additionally signaled through markRapid before the
// execution starts: an execution that outlasts the pending dispatch wait must
// not push the cadence back to the idle interval.
//
// Nothing raised by the source or the executor escapes: fetch errors become
// BuildFault notifications, execute errors become faulted TaskExecuted
// notifications, and panics in the executor are converted to errors.
func (w *worker[P]) cycle(ctx context.Context) bool {
	w.inst.cycles.Add(1)

	item, err := w.source.Fetch(ctx)
	if err != nil {
		w.markRapid(false)
		w.inst.fetchFaults.Add(1)
		w.logger.Error("fetch failed", "worker", w.index, "error", err)
		w.publish(Event[P]{
			Kind:   EventBuildFault,
			Worker: w.index,
			Err:    fmt.Errorf("%w: %w", ErrFetchFailed, err),
		})
		return false
	}
	if item == nil {
		w.markRapid(false)
		w.logger.Debug("no task available", "worker", w.index)
		w.publish(Event[P]{Kind: EventNoTask, Worker: w.index})
		return false
	}
	w.markRapid(true)

	logger := w.logger.With("worker", w.index, "item_id", item.ID, "item_name", item.Name)
	logger.Info("executing item")
	w.publish(Event[P]{Kind: EventTaskExecuting, Worker: w.index, Item: item})

	start := time.Now()
	err = w.execute(ctx, item)
	elapsed := time.Since(start)

	w.inst.executed.Add(1)
	w.inst.duration.Record(elapsed.Seconds())
	if err != nil {
		w.inst.faulted.Add(1)
		logger.Error("item execution failed", "duration", elapsed, "error", err)
	} else {
		logger.Info("item executed", "duration", elapsed)
	}
	w.publish(Event[P]{
		Kind:     EventTaskExecuted,
		Worker:   w.index,
		Item:     item,
		Duration: elapsed,
		Faulted:  err != nil,
		Err:      err,
	})
	return true
}

// execute invokes the executor, converting a panic into an error.
func (w *worker[P]) execute(ctx context.Context, item *Item[P]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrExecutePanicked, r)
		}
	}()
	return w.executor.Execute(ctx, item)
}

// run is the fixed-strategy worker loop: cycle, timed backoff, repeat until
// the wake channel is closed. The backoff mirrors the dispatch loop's
// idle/busy selection. onExit runs after the exit notification; the pool uses
// it to decrement the active count and signal drain.
func (w *worker[P]) run(ctx context.Context, wake <-chan struct{}, idle, busy time.Duration, onExit func()) {
	w.logger.Debug("worker started", "worker", w.index, "name", w.name)
	w.publish(Event[P]{Kind: EventWorkerStarted, Worker: w.index})

	for {
		// observe a stop requested while the previous cycle was executing
		select {
		case <-wake:
			w.exit(onExit)
			return
		default:
		}

		interval := idle
		if w.cycle(ctx) {
			interval = busy
		}

		t := time.NewTimer(interval)
		select {
		case <-wake:
			t.Stop()
			w.exit(onExit)
			return
		case <-t.C:
		}
	}
}

func (w *worker[P]) exit(onExit func()) {
	w.logger.Debug("worker exited", "worker", w.index, "name", w.name)
	w.publish(Event[P]{Kind: EventWorkerExited, Worker: w.index})
	onExit()
}
