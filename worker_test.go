package pollpool

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/pollpool/metrics"
)

type eventRecorder[P any] struct {
	mu     sync.Mutex
	events []Event[P]
	marks  []bool
}

func (r *eventRecorder[P]) publish(e Event[P]) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *eventRecorder[P]) mark(fetched bool) {
	r.mu.Lock()
	r.marks = append(r.marks, fetched)
	r.mu.Unlock()
}

func (r *eventRecorder[P]) lastMark() (fetched, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.marks) == 0 {
		return false, false
	}
	return r.marks[len(r.marks)-1], true
}

func (r *eventRecorder[P]) snapshot() []Event[P] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event[P], len(r.events))
	copy(out, r.events)
	return out
}

func (r *eventRecorder[P]) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func newTestWorker(
	t *testing.T,
	source Source[string],
	executor Executor[string],
) (*worker[string], *eventRecorder[string], *metrics.BasicProvider) {
	t.Helper()
	rec := &eventRecorder[string]{}
	provider := metrics.NewBasicProvider()
	w := &worker[string]{
		index:     7,
		name:      "test-worker-7",
		source:    source,
		executor:  executor,
		publish:   rec.publish,
		markRapid: rec.mark,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		inst:      newInstruments(provider),
	}
	return w, rec, provider
}

func TestWorkerCycle_FetchFault(t *testing.T) {
	fetchErr := errors.New("backend unavailable")
	src := SourceFunc[string](func(context.Context) (*Item[string], error) {
		return nil, fetchErr
	})
	exec := ExecutorFunc[string](func(context.Context, *Item[string]) error {
		t.Fatal("executor must not be called on fetch failure")
		return nil
	})
	w, rec, provider := newTestWorker(t, src, exec)

	rapid := w.cycle(context.Background())

	assert.False(t, rapid, "fetch failure must select the idle backoff")
	fetched, ok := rec.lastMark()
	require.True(t, ok)
	assert.False(t, fetched)
	events := rec.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, EventBuildFault, events[0].Kind)
	assert.Equal(t, 7, events[0].Worker)
	assert.ErrorIs(t, events[0].Err, ErrFetchFailed)
	assert.ErrorIs(t, events[0].Err, fetchErr)

	// fetch faults and execution faults are distinct failure channels
	faults := provider.Counter("fetch_faults_total").(*metrics.BasicCounter)
	executed := provider.Counter("items_executed_total").(*metrics.BasicCounter)
	assert.Equal(t, int64(1), faults.Snapshot())
	assert.Equal(t, int64(0), executed.Snapshot())
}

func TestWorkerCycle_NoItem(t *testing.T) {
	src := SourceFunc[string](func(context.Context) (*Item[string], error) {
		return nil, nil
	})
	exec := ExecutorFunc[string](func(context.Context, *Item[string]) error {
		t.Fatal("executor must not be called without an item")
		return nil
	})
	w, rec, _ := newTestWorker(t, src, exec)

	rapid := w.cycle(context.Background())

	assert.False(t, rapid)
	fetched, ok := rec.lastMark()
	require.True(t, ok)
	assert.False(t, fetched)
	require.Equal(t, []EventKind{EventNoTask}, rec.kinds())
}

func TestWorkerCycle_MarksRapidAtFetch(t *testing.T) {
	src := SourceFunc[string](func(context.Context) (*Item[string], error) {
		return NewItem("job", "payload"), nil
	})

	// the executor observes the fetch outcome already signaled, proving the
	// cadence flag does not wait for the execution to finish
	var rec *eventRecorder[string]
	exec := ExecutorFunc[string](func(context.Context, *Item[string]) error {
		fetched, ok := rec.lastMark()
		assert.True(t, ok, "the fetch outcome must be signaled before execution starts")
		assert.True(t, fetched)
		return nil
	})

	w, r, _ := newTestWorker(t, src, exec)
	rec = r

	w.cycle(context.Background())
}

func TestWorkerCycle_Executes(t *testing.T) {
	item := NewItem("job", "payload")
	src := SourceFunc[string](func(context.Context) (*Item[string], error) {
		return item, nil
	})
	exec := ExecutorFunc[string](func(_ context.Context, got *Item[string]) error {
		assert.Same(t, item, got)
		time.Sleep(20 * time.Millisecond)
		return nil
	})
	w, rec, provider := newTestWorker(t, src, exec)

	rapid := w.cycle(context.Background())

	assert.True(t, rapid, "a fetched item must select the busy backoff")
	events := rec.snapshot()
	require.Equal(t, []EventKind{EventTaskExecuting, EventTaskExecuted}, rec.kinds())
	assert.Same(t, item, events[0].Item)
	assert.Same(t, item, events[1].Item)
	assert.False(t, events[1].Faulted)
	assert.NoError(t, events[1].Err)
	assert.GreaterOrEqual(t, events[1].Duration, 20*time.Millisecond)

	executed := provider.Counter("items_executed_total").(*metrics.BasicCounter)
	faulted := provider.Counter("items_faulted_total").(*metrics.BasicCounter)
	assert.Equal(t, int64(1), executed.Snapshot())
	assert.Equal(t, int64(0), faulted.Snapshot())
}

func TestWorkerCycle_ExecuteError(t *testing.T) {
	execErr := errors.New("boom")
	src := SourceFunc[string](func(context.Context) (*Item[string], error) {
		return NewItem("job", "payload"), nil
	})
	exec := ExecutorFunc[string](func(context.Context, *Item[string]) error {
		return execErr
	})
	w, rec, provider := newTestWorker(t, src, exec)

	rapid := w.cycle(context.Background())

	// an error outcome still counts as a rapid cycle: work was found
	assert.True(t, rapid)
	events := rec.snapshot()
	require.Equal(t, []EventKind{EventTaskExecuting, EventTaskExecuted}, rec.kinds())
	assert.True(t, events[1].Faulted)
	assert.ErrorIs(t, events[1].Err, execErr)

	faulted := provider.Counter("items_faulted_total").(*metrics.BasicCounter)
	assert.Equal(t, int64(1), faulted.Snapshot())
}

func TestWorkerCycle_ExecutePanic(t *testing.T) {
	src := SourceFunc[string](func(context.Context) (*Item[string], error) {
		return NewItem("job", "payload"), nil
	})
	exec := ExecutorFunc[string](func(context.Context, *Item[string]) error {
		panic("unexpected payload")
	})
	w, rec, _ := newTestWorker(t, src, exec)

	rapid := w.cycle(context.Background())

	assert.True(t, rapid)
	events := rec.snapshot()
	require.Equal(t, []EventKind{EventTaskExecuting, EventTaskExecuted}, rec.kinds())
	assert.True(t, events[1].Faulted)
	assert.ErrorIs(t, events[1].Err, ErrExecutePanicked)
	assert.Contains(t, events[1].Err.Error(), "unexpected payload")
}

func TestWorkerRun_StartedPrecedesExit(t *testing.T) {
	src := SourceFunc[string](func(context.Context) (*Item[string], error) {
		return nil, nil
	})
	exec := ExecutorFunc[string](func(context.Context, *Item[string]) error { return nil })
	w, rec, _ := newTestWorker(t, src, exec)

	wake := make(chan struct{})
	exited := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.run(context.Background(), wake, time.Hour, time.Hour, func() { close(exited) })
	}()

	// wait until the worker parks on its idle backoff after the first
	// (empty) cycle, then wake it
	require.Eventually(t, func() bool {
		kinds := rec.kinds()
		return len(kinds) == 2 && kinds[1] == EventNoTask
	}, time.Second, time.Millisecond)
	close(wake)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after wake")
	}
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("onExit was not invoked")
	}

	require.Equal(t, []EventKind{EventWorkerStarted, EventNoTask, EventWorkerExited}, rec.kinds())
}
