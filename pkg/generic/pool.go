package generic

import "sync"

// Pool is a typed sync.Pool. Values handed back through Put are passed to the
// optional reset hook first, and dropped when the hook rejects them.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T) bool
}

func NewPool[T any](generate func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
	}
}

// NewResetPool returns a pool that runs reset on every value given to Put.
// Returning false from reset discards the value, e.g. an oversized buffer.
func NewResetPool[T any](generate func() T, reset func(T) bool) *Pool[T] {
	p := NewPool[T](generate)
	p.reset = reset
	return p
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	if p.reset != nil && !p.reset(value) {
		return
	}
	p.pool.Put(value)
}
