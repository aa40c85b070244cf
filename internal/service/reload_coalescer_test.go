package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func waitSignal(t *testing.T, ch <-chan struct{}, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal(msg)
	}
}

func assertNoSignal(t *testing.T, ch <-chan struct{}, within time.Duration) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("unexpected reload started")
	case <-time.After(within):
	}
}

func TestReloadCoalescer_IdleTriggerStartsImmediately(t *testing.T) {
	started := make(chan struct{}, 1)
	c := NewReloadCoalescer(context.Background(), func(_ context.Context) error {
		started <- struct{}{}
		return nil
	}, zerolog.Nop())

	c.Trigger()
	waitSignal(t, started, "reload did not start after idle trigger")
}

func TestReloadCoalescer_CoalescesBurstIntoOneRerun(t *testing.T) {
	var calls int32
	started := make(chan struct{}, 16)
	release := make(chan struct{})

	c := NewReloadCoalescer(context.Background(), func(_ context.Context) error {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		<-release
		return nil
	}, zerolog.Nop())

	// First trigger starts a reload that blocks.
	c.Trigger()
	waitSignal(t, started, "first reload did not start")

	// Five triggers during the busy period collapse into one pending run.
	for i := 0; i < 5; i++ {
		c.Trigger()
	}

	release <- struct{}{}
	waitSignal(t, started, "pending reload did not run after the first completed")

	release <- struct{}{}
	assertNoSignal(t, started, 100*time.Millisecond)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "6 triggers must produce exactly 2 reloads")
}

func TestReloadCoalescer_FailureDoesNotSuppressPendingRun(t *testing.T) {
	var calls int32
	started := make(chan struct{}, 4)
	release := make(chan struct{})

	c := NewReloadCoalescer(context.Background(), func(_ context.Context) error {
		n := atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		<-release
		if n == 1 {
			return fmt.Errorf("index rebuild failed")
		}
		return nil
	}, zerolog.Nop())

	c.Trigger()
	waitSignal(t, started, "first reload did not start")

	c.Trigger() // pending during the failing run

	release <- struct{}{}
	waitSignal(t, started, "pending reload did not run after a failed reload")

	release <- struct{}{}
	assertNoSignal(t, started, 100*time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestReloadCoalescer_SequentialTriggersEachRun(t *testing.T) {
	var calls int32
	started := make(chan struct{}, 4)

	c := NewReloadCoalescer(context.Background(), func(_ context.Context) error {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		return nil
	}, zerolog.Nop())

	c.Trigger()
	waitSignal(t, started, "first reload did not run")

	c.Trigger()
	waitSignal(t, started, "second reload did not run")

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestReloadCoalescer_ConcurrentTriggers(t *testing.T) {
	var calls int32
	c := NewReloadCoalescer(context.Background(), func(_ context.Context) error {
		atomic.AddInt32(&calls, 1)
		time.Sleep(time.Millisecond)
		return nil
	}, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Trigger()
		}()
	}
	wg.Wait()

	// Wait for the scheduler to drain.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n := atomic.LoadInt32(&calls)
		time.Sleep(20 * time.Millisecond)
		if n == atomic.LoadInt32(&calls) {
			break
		}
	}

	n := atomic.LoadInt32(&calls)
	assert.GreaterOrEqual(t, n, int32(1), "at least one reload must run")
	assert.LessOrEqual(t, n, int32(50), "never more reloads than triggers")

	// Once drained, a fresh trigger must still run.
	before := atomic.LoadInt32(&calls)
	c.Trigger()
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) > before
	}, 2*time.Second, 10*time.Millisecond, "coalescer must stay live after a burst")
}
