package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingSweeper struct {
	calls atomic.Int64
	err   error
}

func (s *countingSweeper) SweepOverdue(context.Context) (int, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestSweepWorkerRunsOnInterval(t *testing.T) {
	sweeper := &countingSweeper{}
	w := NewSweepWorker(sweeper, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for sweeper.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d sweeps before deadline", sweeper.calls.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestSweepWorkerFinalSweepOnShutdown(t *testing.T) {
	sweeper := &countingSweeper{}
	// Long interval: the only sweep should be the shutdown one.
	w := NewSweepWorker(sweeper, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()
	<-done

	if got := sweeper.calls.Load(); got != 1 {
		t.Errorf("sweeps = %d, want the single shutdown sweep", got)
	}
}

func TestSweepWorkerSurvivesErrors(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("db down")}
	w := NewSweepWorker(sweeper, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for sweeper.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("worker stopped after first error")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done
}
