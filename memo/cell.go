// Package memo runs a computation at most once per call site and hands every
// caller the same result for the rest of the process.
//
// A Cell is the storage for one call site. Declare it next to the code that
// uses it:
//
//	var bannerCell memo.Cell[string]
//
//	func banner() string {
//		return bannerCell.Get(func() string {
//			return intern.Format("%s v%s", name, version)
//		})
//	}
//
// When cells cannot be declared up front, Once keys a Registry by the caller's
// position in the source.
//
// A computation that panics poisons its cell for good: the panic reaches the
// caller that ran it, and everyone else gets a *PoisonedError. A computation
// is never retried.
package memo

import (
	"sync"
	"sync/atomic"
)

type State int32

const (
	StateUninitialized State = iota
	StateRunning
	StateComplete
	StatePoisoned
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StatePoisoned:
		return "poisoned"
	}
	return "unknown"
}

// Cell must not be copied after first use.
type Cell[T any] struct {
	once  sync.Once
	state atomic.Int32

	value      T
	err        error
	panicValue any
}

func (c *Cell[T]) State() State {
	return State(c.state.Load())
}

// Get returns the result of the first computation passed to the cell.
// Concurrent callers block until it has finished.
func (c *Cell[T]) Get(compute func() T) T {
	if c.State() == StateComplete {
		return c.value
	}

	value, _ := c.GetErr(func() (T, error) {
		return compute(), nil
	})
	return value
}

// GetErr is like Get for computations that can fail. A returned error is the
// committed result: it is handed to every caller and the computation is not
// run again.
func (c *Cell[T]) GetErr(compute func() (T, error)) (T, error) {
	if c.State() == StateComplete {
		return c.value, c.err
	}

	c.once.Do(func() {
		c.run(compute)
	})

	if c.State() == StatePoisoned {
		panic(&PoisonedError{Value: c.panicValue})
	}
	return c.value, c.err
}

func (c *Cell[T]) run(compute func() (T, error)) {
	c.state.Store(int32(StateRunning))

	completed := false
	defer func() {
		if completed {
			return
		}
		r := recover()
		c.panicValue = r
		c.state.Store(int32(StatePoisoned))
		if r != nil {
			panic(r)
		}
	}()

	c.value, c.err = compute()
	completed = true
	c.state.Store(int32(StateComplete))
}
