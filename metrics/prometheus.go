package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusProvider adapts Provider to Prometheus collectors. Counters map
// to prometheus counters, up/down counters to gauges, and histograms to
// prometheus histograms with the default buckets.
//
// Collectors are registered with the supplied Registerer on first use of a
// name; duplicate registrations reuse the already-registered collector.
type PrometheusProvider struct {
	namespace string
	subsystem string
	reg       prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// NewPrometheusProvider constructs a provider registering collectors under
// namespace/subsystem with reg. A nil reg uses the default registerer.
func NewPrometheusProvider(namespace, subsystem string, reg prometheus.Registerer) *PrometheusProvider {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusProvider{
		namespace:  namespace,
		subsystem:  subsystem,
		reg:        reg,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Counter returns the prometheus-backed counter registered under name.
func (p *PrometheusProvider) Counter(name string, opts ...InstrumentOption) Counter {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.counters[name]
	if !ok {
		cfg := applyOptions(opts)
		c = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: p.subsystem,
			Name:      name,
			Help:      cfg.Description,
		})
		c = p.registerCounter(c)
		p.counters[name] = c
	}
	return promCounter{c}
}

// UpDownCounter returns the gauge-backed up/down counter registered under name.
func (p *PrometheusProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.gauges[name]
	if !ok {
		cfg := applyOptions(opts)
		g = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: p.subsystem,
			Name:      name,
			Help:      cfg.Description,
		})
		g = p.registerGauge(g)
		p.gauges[name] = g
	}
	return promGauge{g}
}

// Histogram returns the prometheus-backed histogram registered under name.
func (p *PrometheusProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.histograms[name]
	if !ok {
		cfg := applyOptions(opts)
		h = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: p.subsystem,
			Name:      name,
			Help:      cfg.Description,
			Buckets:   prometheus.DefBuckets,
		})
		h = p.registerHistogram(h)
		p.histograms[name] = h
	}
	return promHistogram{h}
}

func (p *PrometheusProvider) registerCounter(c prometheus.Counter) prometheus.Counter {
	if err := p.reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
	}
	return c
}

func (p *PrometheusProvider) registerGauge(g prometheus.Gauge) prometheus.Gauge {
	if err := p.reg.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing
			}
		}
	}
	return g
}

func (p *PrometheusProvider) registerHistogram(h prometheus.Histogram) prometheus.Histogram {
	if err := p.reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing
			}
		}
	}
	return h
}

type promCounter struct{ c prometheus.Counter }

func (pc promCounter) Add(n int64) {
	if n > 0 {
		pc.c.Add(float64(n))
	}
}

type promGauge struct{ g prometheus.Gauge }

func (pg promGauge) Add(n int64) { pg.g.Add(float64(n)) }

type promHistogram struct{ h prometheus.Histogram }

func (ph promHistogram) Record(v float64) { ph.h.Observe(v) }
