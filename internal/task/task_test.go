package task

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLoop_RunAsyncSuccess(t *testing.T) {
	loop := NewLoop()
	go loop.Run()
	defer loop.Stop()

	events := make(chan string, 2)
	loop.RunAsync(func() error {
		events <- "work"
		return nil
	}, func() {
		events <- "success"
	}, func(err error) {
		t.Errorf("unexpected failure: %v", err)
	})

	expectEvent(t, events, "work")
	expectEvent(t, events, "success")
}

func TestLoop_RunAsyncFailure(t *testing.T) {
	loop := NewLoop()
	go loop.Run()
	defer loop.Stop()

	boom := errors.New("boom")
	events := make(chan error, 1)
	loop.RunAsync(func() error {
		return boom
	}, func() {
		t.Error("success continuation must not fire on failure")
	}, func(err error) {
		events <- err
	})

	select {
	case err := <-events:
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("failure continuation never fired")
	}
}

func TestLoop_ContinuationsRunOnLoopGoroutine(t *testing.T) {
	loop := NewLoop()
	go loop.Run()
	defer loop.Stop()

	// Unsynchronized counter: safe only if the loop serializes all
	// continuations. The race detector flags this test otherwise.
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		loop.RunAsync(func() error { return nil }, func() {
			counter++
			wg.Done()
		}, nil)
	}
	waitWithTimeout(t, &wg)

	done := make(chan int, 1)
	loop.Post(func() { done <- counter })
	select {
	case got := <-done:
		if got != 20 {
			t.Errorf("expected 20 continuations, got %d", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("posted task never ran")
	}
}

func TestLoop_PostAfterStopIsNoop(t *testing.T) {
	loop := NewLoop()
	go loop.Run()
	loop.Stop()
	loop.Stop() // idempotent

	// Must not block or panic.
	loop.Post(func() { t.Error("task ran after stop") })
	time.Sleep(50 * time.Millisecond)
}

func expectEvent(t *testing.T, events <-chan string, expected string) {
	t.Helper()
	select {
	case got := <-events:
		if got != expected {
			t.Fatalf("expected event %q, got %q", expected, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("event %q never arrived", expected)
	}
}

func waitWithTimeout(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("continuations never completed")
	}
}
