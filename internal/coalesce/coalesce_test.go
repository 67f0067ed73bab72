// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package coalesce

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDo_CoalescesConcurrentCallers(t *testing.T) {
	g := NewGroup[string]("test", time.Minute)

	var invocations atomic.Int32
	release := make(chan struct{})

	op := func(ctx context.Context) (string, error) {
		invocations.Add(1)
		<-release
		return "result", nil
	}

	const callers = 10
	results := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = g.Do(context.Background(), "k", op)
		}(i)
	}

	// Wait until the first caller has registered the entry, then release.
	for g.PendingCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()

	if n := invocations.Load(); n != 1 {
		t.Errorf("op invoked %d times, want 1", n)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d: unexpected error: %v", i, errs[i])
		}
		if results[i] != "result" {
			t.Errorf("caller %d: result = %q, want %q", i, results[i], "result")
		}
	}
}

func TestDo_ErrorPropagatesToAllCallers(t *testing.T) {
	g := NewGroup[int]("test", time.Minute)

	wantErr := errors.New("upstream unavailable")
	release := make(chan struct{})

	op := func(ctx context.Context) (int, error) {
		<-release
		return 0, wantErr
	}

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = g.Do(context.Background(), "k", op)
		}(i)
	}

	for g.PendingCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, wantErr) {
			t.Errorf("caller %d: err = %v, want %v", i, err, wantErr)
		}
	}
}

func TestDo_PostSettlementIndependence(t *testing.T) {
	g := NewGroup[int]("test", time.Minute)

	var invocations atomic.Int32
	op := func(ctx context.Context) (int, error) {
		return int(invocations.Add(1)), nil
	}

	first, err := g.Do(context.Background(), "k", op)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := g.Do(context.Background(), "k", op)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if first != 1 || second != 2 {
		t.Errorf("results = %d, %d; want 1, 2 (fresh invocation after settlement)", first, second)
	}
	if g.PendingCount() != 0 {
		t.Errorf("PendingCount = %d after settlement, want 0", g.PendingCount())
	}
}

func TestDo_FailureDoesNotBlockRetry(t *testing.T) {
	g := NewGroup[int]("test", time.Minute)

	_, err := g.Do(context.Background(), "k", func(ctx context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error from first call")
	}

	got, err := g.Do(context.Background(), "k", func(ctx context.Context) (int, error) {
		return 7, nil
	})
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if got != 7 {
		t.Errorf("retry result = %d, want 7", got)
	}
}

func TestDo_TimeoutEviction(t *testing.T) {
	g := NewGroup[string]("test", 50*time.Millisecond)

	var invocations atomic.Int32
	slowOp := func(ctx context.Context) (string, error) {
		invocations.Add(1)
		time.Sleep(200 * time.Millisecond)
		return "slow", nil
	}

	go func() {
		_, _ = g.Do(context.Background(), "x", slowOp)
	}()

	// Before the timeout the entry is present and would be shared.
	time.Sleep(20 * time.Millisecond)
	if g.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d before timeout, want 1", g.PendingCount())
	}

	// After the timeout a new caller must trigger a fresh invocation even
	// though the original operation is still running.
	time.Sleep(60 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = g.Do(context.Background(), "x", slowOp)
	}()

	deadline := time.After(100 * time.Millisecond)
	for invocations.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("op invoked %d times after timeout, want 2", invocations.Load())
		default:
			time.Sleep(time.Millisecond)
		}
	}
	<-done
}

func TestDo_CallerContextCancellation(t *testing.T) {
	g := NewGroup[string]("test", time.Minute)

	release := make(chan struct{})
	op := func(ctx context.Context) (string, error) {
		<-release
		return "late", nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	abandoned := make(chan error, 1)
	go func() {
		_, err := g.Do(ctx, "k", op)
		abandoned <- err
	}()

	for g.PendingCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	if err := <-abandoned; !errors.Is(err, context.Canceled) {
		t.Errorf("abandoned caller err = %v, want context.Canceled", err)
	}

	// The operation was not cancelled: a second caller attached to the same
	// entry still receives its result.
	got := make(chan string, 1)
	go func() {
		v, _ := g.Do(context.Background(), "k", op)
		got <- v
	}()
	time.Sleep(10 * time.Millisecond)
	close(release)

	if v := <-got; v != "late" {
		t.Errorf("second caller result = %q, want %q", v, "late")
	}
}

func TestSweep(t *testing.T) {
	g := NewGroup[int]("test", 20*time.Millisecond)

	block := make(chan struct{})
	defer close(block)

	for _, key := range []string{"a", "b", "c"} {
		k := key
		go func() {
			_, _ = g.Do(context.Background(), k, func(ctx context.Context) (int, error) {
				<-block
				return 0, nil
			})
		}()
	}
	for g.PendingCount() < 3 {
		time.Sleep(time.Millisecond)
	}

	if evicted := g.Sweep(); evicted != 0 {
		t.Errorf("Sweep evicted %d fresh entries, want 0", evicted)
	}

	time.Sleep(30 * time.Millisecond)
	if evicted := g.Sweep(); evicted != 3 {
		t.Errorf("Sweep evicted %d stale entries, want 3", evicted)
	}
	if g.PendingCount() != 0 {
		t.Errorf("PendingCount = %d after sweep, want 0", g.PendingCount())
	}
}

func TestClear(t *testing.T) {
	g := NewGroup[int]("test", time.Minute)

	block := make(chan struct{})
	defer close(block)

	go func() {
		_, _ = g.Do(context.Background(), "k", func(ctx context.Context) (int, error) {
			<-block
			return 0, nil
		})
	}()
	for g.PendingCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	g.Clear()
	if g.PendingCount() != 0 {
		t.Errorf("PendingCount = %d after Clear, want 0", g.PendingCount())
	}
}
