package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatchReportsOutcomeOnce(t *testing.T) {
	d := NewDispatcher(time.Second, nil)
	boom := errors.New("boom")

	var runs int32
	errs := d.Dispatch("fail", func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return boom
	})
	if err := <-errs; !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if atomic.LoadInt32(&runs) != 1 {
		t.Fatalf("command ran %d times; failures must not be retried", runs)
	}
}

func TestDispatchDetachesFromCaller(t *testing.T) {
	d := NewDispatcher(50*time.Millisecond, nil)
	errs := d.Dispatch("slow", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("command ran without a deadline")
		}
		<-ctx.Done()
		return ctx.Err()
	})
	select {
	case err := <-errs:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("err = %v, want deadline exceeded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command timeout not applied")
	}
}

func TestCloseWaitsAndRejects(t *testing.T) {
	d := NewDispatcher(time.Second, nil)
	release := make(chan struct{})
	var finished int32
	d.Dispatch("blocked", func(context.Context) error {
		<-release
		atomic.StoreInt32(&finished, 1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Close with in-flight command = %v", err)
	}

	if err := <-d.Dispatch("late", func(context.Context) error { return nil }); !errors.Is(err, ErrDispatcherClosed) {
		t.Fatalf("late dispatch err = %v", err)
	}

	close(release)
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if atomic.LoadInt32(&finished) != 1 {
		t.Fatal("Close returned before the in-flight command finished")
	}
}
