package concurrent

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Join is a completion token for scattered work. Wait blocks until every
// unit of work behind the token has finished. A nil Join waits for nothing.
type Join struct {
	wait func()
}

// Wait blocks until the scattered work completes.
func (j *Join) Wait() {
	if j != nil && j.wait != nil {
		j.wait()
	}
}

// Scatter runs fn(i, items[i]) for every element across at most workers
// goroutines and returns immediately. The returned Join is the explicit
// completion point; the caller must Wait before touching any output written
// by fn. workers <= 0 defaults to the number of CPUs.
func Scatter[T any](items []T, workers int, fn func(int, T)) *Join {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var wg sync.WaitGroup
	wg.Add(len(items))
	sem := make(chan struct{}, workers)

	// Dispatch from a goroutine so Scatter never blocks on the semaphore.
	go func() {
		for i := range items {
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				fn(i, items[i])
			}(i)
		}
	}()

	return &Join{wait: wg.Wait}
}

// Combine merges several completion tokens into one. Waiting on the result
// waits on every input token.
func Combine(joins ...*Join) *Join {
	return &Join{wait: func() {
		for _, j := range joins {
			j.Wait()
		}
	}}
}

// ErrJoin is a completion token for error-returning scattered work.
type ErrJoin struct {
	wait func() error
}

// Wait blocks until all work completes and returns the first error.
func (j *ErrJoin) Wait() error {
	if j == nil || j.wait == nil {
		return nil
	}
	return j.wait()
}

// ScatterErr is Scatter for error-returning work, built on errgroup. The
// first error is reported by Wait; remaining items still run.
func ScatterErr[T any](items []T, workers int, fn func(int, T) error) *ErrJoin {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g := &errgroup.Group{}
	g.SetLimit(workers)

	// Dispatch asynchronously; Wait must not observe the group before every
	// item has been handed to it.
	var dispatched sync.WaitGroup
	dispatched.Add(1)
	go func() {
		defer dispatched.Done()
		for i := range items {
			i := i
			g.Go(func() error {
				return fn(i, items[i])
			})
		}
	}()

	return &ErrJoin{wait: func() error {
		dispatched.Wait()
		return g.Wait()
	}}
}
