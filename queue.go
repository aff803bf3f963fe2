package pollpool

import (
	"context"
	"sync"
)

// Queue is a concurrency-safe in-memory FIFO Source. It is a convenience
// collaborator for embedding and tests: push items from any goroutine, let the
// pool drain them in submission order.
//
// Fetch never fails; an empty queue yields (nil, nil).
type Queue[P any] struct {
	mu    sync.Mutex
	items []*Item[P]
}

// NewQueue creates an empty queue.
func NewQueue[P any]() *Queue[P] {
	return &Queue[P]{}
}

// Push appends items to the tail of the queue, assigning IDs where absent.
func (q *Queue[P]) Push(items ...*Item[P]) {
	q.mu.Lock()
	for _, item := range items {
		if item == nil {
			continue
		}
		q.items = append(q.items, withID(item))
	}
	q.mu.Unlock()
}

// PushValue wraps a payload in a new Item and appends it.
func (q *Queue[P]) PushValue(name string, payload P) *Item[P] {
	item := NewItem(name, payload)
	q.Push(item)
	return item
}

// Fetch pops the head of the queue, or returns (nil, nil) when empty.
func (q *Queue[P]) Fetch(_ context.Context) (*Item[P], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, nil
	}
	item := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return item, nil
}

// Len reports the number of queued items.
func (q *Queue[P]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
