package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicProvider_ReusesInstrumentsByName(t *testing.T) {
	p := NewBasicProvider()

	c1 := p.Counter("requests_total")
	c2 := p.Counter("requests_total")
	assert.Same(t, c1, c2)

	u1 := p.UpDownCounter("in_flight")
	u2 := p.UpDownCounter("in_flight")
	assert.Same(t, u1, u2)

	h1 := p.Histogram("latency_seconds")
	h2 := p.Histogram("latency_seconds")
	assert.Same(t, h1, h2)
}

func TestBasicCounter(t *testing.T) {
	p := NewBasicProvider()
	c := p.Counter("ops_total").(*BasicCounter)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), c.Snapshot())
}

func TestBasicUpDownCounter(t *testing.T) {
	p := NewBasicProvider()
	u := p.UpDownCounter("in_flight").(*BasicUpDownCounter)

	u.Add(5)
	u.Add(-2)
	assert.Equal(t, int64(3), u.Snapshot())
}

func TestBasicHistogram(t *testing.T) {
	p := NewBasicProvider()
	h := p.Histogram("latency_seconds").(*BasicHistogram)

	empty := h.Snapshot()
	assert.Zero(t, empty.Count)
	assert.Zero(t, empty.Mean)

	for _, v := range []float64{0.5, 1.5, 1.0} {
		h.Record(v)
	}

	s := h.Snapshot()
	assert.Equal(t, int64(3), s.Count)
	assert.InDelta(t, 3.0, s.Sum, 1e-9)
	assert.InDelta(t, 0.5, s.Min, 1e-9)
	assert.InDelta(t, 1.5, s.Max, 1e-9)
	assert.InDelta(t, 1.0, s.Mean, 1e-9)
}
