package pollpool

import "github.com/google/uuid"

// Item is the unit of schedulable work: an opaque identity, a display name,
// and an optional typed payload. An Item is immutable once handed to a worker;
// the pool keeps no reference after the executing cycle returns.
type Item[P any] struct {
	// ID uniquely identifies the item. Assigned by NewItem when absent.
	ID string

	// Name is a display label used in logs and notifications.
	Name string

	// Payload carries the caller-defined data the Executor acts on.
	Payload P
}

// NewItem builds an Item with a generated ID.
func NewItem[P any](name string, payload P) *Item[P] {
	return &Item[P]{ID: uuid.NewString(), Name: name, Payload: payload}
}

// withID ensures the item carries an identity, generating one when absent.
func withID[P any](item *Item[P]) *Item[P] {
	if item != nil && item.ID == "" {
		item.ID = uuid.NewString()
	}
	return item
}
