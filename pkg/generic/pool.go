package generic

import (
	"bytes"
	"sync"
)

// Pool is a typed sync.Pool. Values are reset, when a reset func is set,
// before they go back into the pool.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
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

// WithReset sets the function applied on Put and returns p.
func (p *Pool[T]) WithReset(reset func(T)) *Pool[T] {
	p.reset = reset
	return p
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	if p.reset != nil {
		p.reset(value)
	}
	p.pool.Put(value)
}

// maxPooledBuffer keeps oversized buffers from pinning memory in the pool.
const maxPooledBuffer = 64 << 10

// NewBufferPool returns a pool of empty buffers with the given initial capacity.
func NewBufferPool(capacity int) *Pool[*bytes.Buffer] {
	return NewPool(func() *bytes.Buffer {
		return bytes.NewBuffer(make([]byte, 0, capacity))
	}).WithReset(func(b *bytes.Buffer) {
		if b.Cap() > maxPooledBuffer {
			*b = bytes.Buffer{}
			b.Grow(capacity)
			return
		}
		b.Reset()
	})
}
