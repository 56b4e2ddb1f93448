package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeExpirer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeExpirer) ExpireLapsedMemberships(ctx context.Context) (int, error) {
	f.calls.Add(1)
	return 1, f.err
}

func TestExpirySweeper_RunsImmediatelyAndOnTick(t *testing.T) {
	fake := &fakeExpirer{}
	w := NewExpirySweeper(fake, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for fake.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 3 sweeps, got %d", fake.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop after cancel")
	}
}

func TestExpirySweeper_KeepsRunningAfterError(t *testing.T) {
	fake := &fakeExpirer{err: errors.New("redis down")}
	w := NewExpirySweeper(fake, 5*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	if fake.calls.Load() < 2 {
		t.Fatalf("expected sweeps to continue after an error, got %d", fake.calls.Load())
	}
}
