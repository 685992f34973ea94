package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestManager_ShutdownRunsHandlersInReverseOrder(t *testing.T) {
	m := NewManager()
	var order []string

	m.Register("first", func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	m.Register("second", func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})
	m.Register("third", func(ctx context.Context) error {
		order = append(order, "third")
		return nil
	})

	if err := m.Shutdown(context.Background(), time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	want := []string{"third", "second", "first"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestManager_ShutdownRunsEveryHandlerDespiteErrors(t *testing.T) {
	m := NewManager()
	ran := make(map[string]bool)

	m.Register("ok", func(ctx context.Context) error {
		ran["ok"] = true
		return nil
	})
	m.Register("fails", func(ctx context.Context) error {
		ran["fails"] = true
		return errors.New("boom")
	})

	err := m.Shutdown(context.Background(), time.Second)
	if err == nil {
		t.Fatal("expected Shutdown() to surface the handler error")
	}
	if !ran["ok"] || !ran["fails"] {
		t.Fatalf("ran = %v, want both handlers to run", ran)
	}
}

func TestManager_ShutdownHandlerExceedingBudgetIsSkipped(t *testing.T) {
	m := NewManager()
	cleanupRan := false

	m.Register("stuck", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	m.Register("cleanup", func(ctx context.Context) error {
		cleanupRan = true
		return nil
	})

	err := m.Shutdown(context.Background(), 20*time.Millisecond)
	if err == nil {
		t.Fatal("expected an error from the handler that exceeded its budget")
	}
	if !cleanupRan {
		t.Fatal("expected the handler after the stuck one to still run")
	}
}

func TestManager_ShutdownWithNoHandlersIsNoop(t *testing.T) {
	m := NewManager()
	if err := m.Shutdown(context.Background(), time.Second); err != nil {
		t.Fatalf("Shutdown() with no handlers error = %v", err)
	}
}

func TestManager_ShutdownRecoversHandlerPanic(t *testing.T) {
	m := NewManager()
	m.Register("panics", func(ctx context.Context) error {
		panic("boom")
	})

	err := m.Shutdown(context.Background(), time.Second)
	if err == nil {
		t.Fatal("expected a recovered panic to surface as an error")
	}
}
