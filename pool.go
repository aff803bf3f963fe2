package pollpool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ygrebnov/errorc"

	"github.com/mkravets/pollpool/metrics"
)

// Pool is the dispatch supervisor: it owns capacity accounting, the polling
// cadence, the Stopped→Running→Draining→Stopped state machine, and the Events
// channel aggregating worker notifications.
//
// Pool is safe for concurrent use. Start and Stop are idempotent; Close is
// terminal.
type Pool[P any] struct {
	// noCopy prevents accidental copying of the supervisor.
	nc noCopy

	cfg      config
	source   Source[P]
	executor Executor[P]

	// base context for worker cycles; canceled only at Close so that Stop
	// lets in-flight fetches and executions finish.
	ctx    context.Context
	cancel context.CancelFunc

	// mu guards lifecycle transitions (Start/Stop/Close ordering).
	mu       sync.Mutex
	disposed bool

	running atomic.Bool
	active  atomic.Int64
	rapid   atomic.Bool // last fetch yielded an item
	seq     atomic.Int64

	// per-Start coordination primitives, allocated under mu.
	stopCh    chan struct{}
	drained   chan struct{}
	drainOnce *sync.Once
	loopWG    sync.WaitGroup
	wakes     []chan struct{}

	events    chan Event[P]
	closing   chan struct{}
	closeOnce sync.Once

	logger *slog.Logger
	inst   *instruments
}

// noCopy is a vet-recognized marker to discourage copying types with this
// field embedded.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New creates a pool named name pulling from source and executing via
// executor. The context is the base for all worker cycles; it is canceled
// only at Close, so canceling it from the host is the way to abort in-flight
// work forcibly.
func New[P any](
	ctx context.Context,
	name string,
	source Source[P],
	executor Executor[P],
	opts ...Option,
) (*Pool[P], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	cfg.name = name
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("", "source must not be nil"))
	}
	if executor == nil {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("", "executor must not be nil"))
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if ctx == nil {
		ctx = context.Background()
	}
	cctx, cancel := context.WithCancel(ctx)

	return &Pool[P]{
		cfg:      cfg,
		source:   source,
		executor: executor,
		ctx:      cctx,
		cancel:   cancel,
		events:   make(chan Event[P], cfg.eventsBufferSize),
		closing:  make(chan struct{}),
		logger:   logger.With("pool", name),
		inst:     newInstruments(cfg.metrics),
	}, nil
}

// Events returns the notification channel. Drain it for as long as the pool
// may run; the pool closes it during Close and never before.
func (p *Pool[P]) Events() <-chan Event[P] { return p.events }

// ActiveCount reports the number of workers currently occupying a capacity
// slot. It never exceeds MaxConcurrency.
func (p *Pool[P]) ActiveCount() int { return int(p.active.Load()) }

// IsRunning reports whether the pool is between a successful Start and the
// completion of Stop.
func (p *Pool[P]) IsRunning() bool { return p.running.Load() }

// Start transitions the pool from Stopped to Running and launches the
// dispatch machinery without blocking the caller. Calling Start on a running
// pool is a no-op; calling it on a disabled pool logs and returns nil;
// calling it on a closed pool returns ErrDisposed.
func (p *Pool[P]) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed {
		return ErrDisposed
	}
	if !p.cfg.enabled {
		p.logger.Info("pool disabled, start ignored")
		return nil
	}
	if p.running.Load() {
		return nil
	}

	p.stopCh = make(chan struct{})
	p.drained = make(chan struct{})
	p.drainOnce = &sync.Once{}
	p.rapid.Store(false)
	p.running.Store(true)

	if p.cfg.fixed {
		p.startFixed()
	} else {
		p.loopWG.Add(1)
		go p.dispatchLoop(p.stopCh, p.drained, p.drainOnce)
	}

	p.logger.Info("pool started",
		"max_concurrency", p.cfg.maxConcurrency,
		"strategy", p.strategy(),
	)
	return nil
}

// Stop requests cooperative shutdown: no new cycles are admitted, and Stop
// waits up to ExitTimeout (indefinitely when zero) for in-flight work to
// drain. It always emits a final ServiceCompleted event reporting whether the
// drain completed; a timeout is a reported condition, not an error. Stop on a
// pool that is not running is a no-op.
func (p *Pool[P]) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return ErrDisposed
	}
	return p.stopLocked()
}

func (p *Pool[P]) stopLocked() error {
	if !p.running.Load() {
		return nil
	}

	close(p.stopCh)
	for _, wake := range p.wakes {
		close(wake)
	}
	p.wakes = nil

	// the dispatch loop observes stopCh promptly; wait for it so no further
	// cycles are spawned past this point
	p.loopWG.Wait()

	safe := true
	if p.active.Load() > 0 {
		p.logger.Info("draining", "active", p.active.Load(), "exit_timeout", p.cfg.exitTimeout)
		if p.cfg.exitTimeout > 0 {
			t := time.NewTimer(p.cfg.exitTimeout)
			select {
			case <-p.drained:
				t.Stop()
			case <-t.C:
				safe = false
			}
		} else {
			<-p.drained
		}
	}

	p.running.Store(false)
	p.logger.Info("pool stopped", "safe_exit", safe, "active", p.active.Load())
	p.publish(Event[P]{Kind: EventServiceCompleted, Worker: -1, SafeExit: safe})
	return nil
}

// Close is the terminal teardown. It stops the pool if running, waits out any
// workers still executing past a timed-out Stop, then closes the Events
// channel. After Close, Start and Stop return ErrDisposed.
func (p *Pool[P]) Close() {
	p.closeOnce.Do(func() {
		lc := newCloseCoordinator(
			func() (<-chan struct{}, bool) {
				p.mu.Lock()
				defer p.mu.Unlock()
				_ = p.stopLocked()
				p.disposed = true
				return p.drained, p.drained != nil && p.active.Load() > 0
			},
			p.cancel,
			func() { close(p.closing) },
			func() { close(p.events) },
		)
		lc.Close()
	})
}

// dispatchLoop is the elastic strategy's supervisor loop. Each iteration it
// either spawns one worker cycle (capacity permitting) or shortens the wait
// to a saturation poll, then blocks on the stop signal for the interval
// selected by the previous cycle's outcome.
func (p *Pool[P]) dispatchLoop(stop chan struct{}, drained chan struct{}, once *sync.Once) {
	defer p.loopWG.Done()
	p.logger.Debug("dispatch loop started")

	for {
		interval := p.nextInterval()

		if p.active.Load() >= int64(p.cfg.maxConcurrency) {
			// capacity full, let existing workers finish
			interval = saturationPoll
		} else {
			p.spawnCycle(stop, drained, once)
		}

		t := time.NewTimer(interval)
		select {
		case <-stop:
			t.Stop()
			p.logger.Debug("dispatch loop stopped")
			if p.active.Load() == 0 {
				once.Do(func() { close(drained) })
			}
			return
		case <-t.C:
		}
	}
}

// nextInterval applies the adaptive backoff rule: the busy interval when the
// most recent fetch yielded an item, the idle interval otherwise.
func (p *Pool[P]) nextInterval() time.Duration {
	if p.rapid.Load() {
		return p.cfg.busyInterval
	}
	return p.cfg.idleInterval
}

// spawnCycle admits one elastic worker cycle. The active count is incremented
// before the goroutine is scheduled so the capacity bound holds even under
// scheduling delay.
func (p *Pool[P]) spawnCycle(stop chan struct{}, drained chan struct{}, once *sync.Once) {
	seq := int(p.seq.Add(1))
	p.active.Add(1)
	p.inst.active.Add(1)

	go func() {
		defer func() {
			p.inst.active.Add(-1)
			if p.active.Add(-1) == 0 {
				select {
				case <-stop:
					// stop already requested; this was the last in-flight
					// worker, so it owns the drain signal
					once.Do(func() { close(drained) })
				default:
				}
			}
		}()

		w := p.newWorker(seq, fmt.Sprintf("%s-cycle-%d", p.cfg.name, seq))
		w.cycle(p.ctx)
	}()
}

// startFixed creates MaxConcurrency long-lived workers, each with a dedicated
// wake channel signaled at Stop.
func (p *Pool[P]) startFixed() {
	p.wakes = make([]chan struct{}, p.cfg.maxConcurrency)
	drained, once := p.drained, p.drainOnce

	for i := range p.wakes {
		wake := make(chan struct{})
		p.wakes[i] = wake
		p.active.Add(1)
		p.inst.active.Add(1)

		w := p.newWorker(i, fmt.Sprintf("%s-worker-%d", p.cfg.name, i))
		go w.run(p.ctx, wake, p.cfg.idleInterval, p.cfg.busyInterval, func() {
			p.inst.active.Add(-1)
			if p.active.Add(-1) == 0 {
				once.Do(func() { close(drained) })
			}
		})
	}
}

func (p *Pool[P]) newWorker(index int, name string) *worker[P] {
	return &worker[P]{
		index:     index,
		name:      name,
		source:    p.source,
		executor:  p.executor,
		publish:   p.publish,
		markRapid: func(fetched bool) { p.rapid.Store(fetched) },
		logger:    p.logger,
		inst:      p.inst,
	}
}

// publish delivers an event to the Events channel. It blocks while the buffer
// is saturated (the host is expected to drain), except during Close teardown
// where pending events are dropped to let stragglers finish.
func (p *Pool[P]) publish(e Event[P]) {
	select {
	case p.events <- e:
		return
	default:
	}
	select {
	case p.events <- e:
	case <-p.closing:
	}
}

func (p *Pool[P]) strategy() string {
	if p.cfg.fixed {
		return "fixed"
	}
	return "elastic"
}

// instruments bundles the pool's metric instruments.
type instruments struct {
	cycles      metrics.Counter
	fetchFaults metrics.Counter
	executed    metrics.Counter
	faulted     metrics.Counter
	active      metrics.UpDownCounter
	duration    metrics.Histogram
}

func newInstruments(provider metrics.Provider) *instruments {
	return &instruments{
		cycles: provider.Counter("cycles_total",
			metrics.WithDescription("Total worker cycles run")),
		fetchFaults: provider.Counter("fetch_faults_total",
			metrics.WithDescription("Total failed fetches")),
		executed: provider.Counter("items_executed_total",
			metrics.WithDescription("Total items executed")),
		faulted: provider.Counter("items_faulted_total",
			metrics.WithDescription("Total items whose execution returned an error")),
		active: provider.UpDownCounter("active_workers",
			metrics.WithDescription("Workers currently occupying a capacity slot")),
		duration: provider.Histogram("item_duration_seconds",
			metrics.WithDescription("Wall-clock item execution time"),
			metrics.WithUnit("seconds")),
	}
}
