package pollpool

import "errors"

const Namespace = "pollpool"

var (
	ErrInvalidConfig   = errors.New(Namespace + ": invalid configuration")
	ErrDisposed        = errors.New(Namespace + ": pool is disposed")
	ErrFetchFailed     = errors.New(Namespace + ": fetch failed")
	ErrExecutePanicked = errors.New(Namespace + ": execute panicked")
)
