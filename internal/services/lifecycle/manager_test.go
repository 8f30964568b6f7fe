package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, zaptest.NewLogger(t))

	var order []string
	for _, name := range []string{"storage", "outbox", "http"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	want := []string{"http", "outbox", "storage"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("hooks ran twice: %v", order)
	}
}

func TestShutdownJoinsErrors(t *testing.T) {
	m := New(time.Second, nil)
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	m.Register("a", func(context.Context) error { return errA })
	m.Register("b", func(context.Context) error { return errB })
	m.Register("nil", nil)

	err := m.Shutdown(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both errors, got %v", err)
	}
}
