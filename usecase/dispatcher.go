package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrDispatcherClosed is returned for commands submitted after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Command is a single store mutation.
type Command func(ctx context.Context) error

// Dispatcher runs mutations off the caller's goroutine. Each command runs
// exactly once under its own timeout, detached from the submitting request;
// failures are logged and reported on the returned channel, never retried.
type Dispatcher struct {
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{timeout: timeout, logger: logger}
}

// Dispatch starts cmd and returns a channel that receives its outcome once.
func (d *Dispatcher) Dispatch(name string, cmd Command) <-chan error {
	done := make(chan error, 1)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		done <- ErrDispatcherClosed
		return done
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		err := cmd(ctx)
		if err != nil {
			d.logger.Error("mutation failed", zap.String("command", name), zap.Error(err))
		}
		done <- err
	}()
	return done
}

// Close stops accepting commands and waits for in-flight ones until ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
