package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type fixedSize struct {
	n   int
	err error
}

func (f fixedSize) Len() (int, error) { return f.n, f.err }

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func TestMonitorStartsOptimistic(t *testing.T) {
	m := New(time.Minute, zaptest.NewLogger(t), WithProbe("db", down, true, 0))
	if !m.IsOnline() {
		t.Fatal("monitor should report online before the first check")
	}
}

func TestRequiredProbesDecideOnline(t *testing.T) {
	cases := []struct {
		name   string
		opts   []Option
		online bool
	}{
		{name: "no probes", online: true},
		{name: "required up", opts: []Option{WithProbe("db", up, true, 0)}, online: true},
		{name: "required down", opts: []Option{WithProbe("db", down, true, 0)}, online: false},
		{name: "optional down", opts: []Option{WithProbe("db", up, true, 0), WithProbe("cache", down, false, 0)}, online: true},
		{name: "nil probe ignored", opts: []Option{WithProbe("db", nil, true, 0)}, online: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := New(time.Minute, zaptest.NewLogger(t), tc.opts...)
			status := m.Refresh(context.Background())
			if status.Online != tc.online || m.IsOnline() != tc.online {
				t.Fatalf("expected online=%v, got %+v", tc.online, status)
			}
		})
	}
}

func TestStatusReportsComponentsAndOutbox(t *testing.T) {
	m := New(time.Minute, zaptest.NewLogger(t),
		WithProbe("db", up, true, 0),
		WithProbe("cache", down, false, 0),
		WithOutbox(fixedSize{n: 4}),
	)
	m.Refresh(context.Background())

	status := m.GetStatus()
	if !status.Components["db"] || status.Components["cache"] {
		t.Fatalf("unexpected components %v", status.Components)
	}
	if !status.Outbox || status.OutboxSize != 4 {
		t.Fatalf("unexpected outbox state %+v", status)
	}
	if status.LastCheck.IsZero() {
		t.Fatal("last check not recorded")
	}

	status.Components["db"] = false
	if !m.GetStatus().Components["db"] {
		t.Fatal("GetStatus must return a copy")
	}
}

func TestOutboxErrorMarksOutboxDown(t *testing.T) {
	m := New(time.Minute, zaptest.NewLogger(t), WithOutbox(fixedSize{err: errors.New("closed")}))
	if status := m.Refresh(context.Background()); status.Outbox {
		t.Fatalf("expected outbox down, got %+v", status)
	}
}

func TestProbeTimeout(t *testing.T) {
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	m := New(time.Minute, zaptest.NewLogger(t), WithProbe("db", slow, true, 10*time.Millisecond))
	if m.Refresh(context.Background()).Online {
		t.Fatal("a probe that times out must count as down")
	}
}

func TestLoopRefreshesUntilStopped(t *testing.T) {
	var calls atomic.Int32
	counting := func(context.Context) error {
		calls.Add(1)
		return nil
	}
	m := New(5*time.Millisecond, zaptest.NewLogger(t), WithProbe("db", counting, true, 0))
	m.Start()

	deadline := time.Now().Add(time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	m.Stop()
	m.Stop()

	if calls.Load() < 3 {
		t.Fatalf("expected periodic refreshes, got %d", calls.Load())
	}
}
