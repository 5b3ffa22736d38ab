package harness

import (
	"sync"
	"sync/atomic"
)

// Lazy holds a value initialized on first use. Concurrent first callers block
// until the single initialization finishes and all observe its result,
// including its error. The zero value is ready to use.
type Lazy[T any] struct {
	once sync.Once
	done atomic.Bool
	val  T
	err  error
}

// Get returns the value, running init if no call has run it yet.
func (l *Lazy[T]) Get(init func() (T, error)) (T, error) {
	l.once.Do(func() {
		l.val, l.err = init()
		l.done.Store(true)
	})
	return l.val, l.err
}

// Loaded returns the value if initialization has completed successfully.
func (l *Lazy[T]) Loaded() (T, bool) {
	if !l.done.Load() || l.err != nil {
		var zero T
		return zero, false
	}
	return l.val, true
}
