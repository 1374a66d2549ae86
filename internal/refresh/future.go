package refresh

import "context"

// Future holds a value that becomes available once its producer returns.
type Future[T any] struct {
	done chan struct{}
	val  T
}

// Go runs fn in its own goroutine and returns its pending result.
func Go[T any](fn func() T) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val = fn()
	}()
	return f
}

func Resolved[T any](v T) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: v}
	close(f.done)
	return f
}

func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Value blocks until the future resolves.
func (f *Future[T]) Value() T {
	<-f.done
	return f.val
}

// Await is Value bounded by ctx.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then calls fn with the resolved value. The returned future resolves after fn
// returns.
func (f *Future[T]) Then(fn func(T)) *Future[struct{}] {
	return Go(func() struct{} {
		fn(f.Value())
		return struct{}{}
	})
}
