package generic

import "sync"

// Pool is a typed wrapper around sync.Pool. The perception core uses it to
// recycle snapshot arrays and detection scratch buffers between ticks.
type Pool[T any] struct {
	pool sync.Pool
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

// NewHotPool pre-warms the pool with hotSize values.
func NewHotPool[T any](generate func() T, hotSize int) *Pool[T] {
	p := NewPool[T](generate)
	for i := 0; i < hotSize; i++ {
		p.pool.Put(generate())
	}
	return p
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	p.pool.Put(value)
}

// SlicePool recycles slices of E, returning them emptied but with their
// capacity intact.
type SlicePool[E any] struct {
	inner *Pool[[]E]
}

// NewSlicePool creates a SlicePool whose fresh slices start with the given
// capacity.
func NewSlicePool[E any](initialCap int) *SlicePool[E] {
	return &SlicePool[E]{
		inner: NewPool(func() []E {
			return make([]E, 0, initialCap)
		}),
	}
}

// NewHotSlicePool is NewSlicePool with hotSize slices allocated up front,
// for callers that want steady-state reuse from the first tick.
func NewHotSlicePool[E any](initialCap, hotSize int) *SlicePool[E] {
	return &SlicePool[E]{
		inner: NewHotPool(func() []E {
			return make([]E, 0, initialCap)
		}, hotSize),
	}
}

// Get returns an empty slice ready for appending.
func (p *SlicePool[E]) Get() []E {
	return p.inner.Get()[:0]
}

// Put returns a slice to the pool. The caller must not retain it.
func (p *SlicePool[E]) Put(s []E) {
	if s == nil {
		return
	}
	p.inner.Put(s[:0])
}
