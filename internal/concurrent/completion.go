package concurrent

import (
	"context"
	"sync"
)

// Completion signals the end of an asynchronous execution.
// It resolves exactly once, either with no payload or with the error that aborted the execution.
type Completion struct {
	done chan struct{}
	once sync.Once
	err  error
}

// NewCompletion creates a new unresolved completion.
func NewCompletion() *Completion {
	return &Completion{
		done: make(chan struct{}),
	}
}

// Start runs the given execution in a new go routine and returns its completion.
func Start(exec func() error) *Completion {
	c := NewCompletion()
	Async(func() {
		c.Resolve(exec())
	})
	return c
}

// Resolve completes with the given error. Only the first call has an effect.
func (c *Completion) Resolve(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Done is closed when the completion is resolved.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the completion is resolved and returns its error.
func (c *Completion) Wait() error {
	<-c.done
	return c.err
}

// Await is like Wait, but gives up when the context is done.
// NOTE : it does not interrupt the underlying execution.
func (c *Completion) Await(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
