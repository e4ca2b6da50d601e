package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	m.Register("http", func(context.Context) error {
		order = append(order, "http")
		return nil
	})
	m.RegisterCloser("bolt", closerFunc(func() error {
		order = append(order, "bolt")
		return nil
	}))
	m.RegisterFunc("monitor", func() { order = append(order, "monitor") })
	m.Register("mutations", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("hook context has no deadline")
		}
		order = append(order, "mutations")
		return nil
	})

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	want := []string{"mutations", "monitor", "bolt", "http"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	if err := m.Shutdown(context.Background()); err != nil || len(order) != 4 {
		t.Fatalf("second Shutdown ran hooks again: %v %v", order, err)
	}
}

func TestShutdownJoinsErrorsAndContinues(t *testing.T) {
	m := New(time.Second, nil)
	first := errors.New("redis close")
	second := errors.New("pool close")
	ran := 0
	m.Register("a", func(context.Context) error { ran++; return first })
	m.Register("b", func(context.Context) error { ran++; return second })
	m.Register("c", func(context.Context) error { ran++; return nil })

	err := m.Shutdown(context.Background())
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("Shutdown err = %v", err)
	}
	if ran != 3 {
		t.Fatalf("ran %d hooks, want 3", ran)
	}
}
