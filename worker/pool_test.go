package worker

import (
	"context"
	"sort"
	"testing"
	"time"
)

func TestPoolProcessesAllJobs(t *testing.T) {
	handler := func(_ context.Context, n int) int {
		return n * 2
	}
	p := NewPool(context.Background(), handler, 4)

	go func() {
		for i := 1; i <= 20; i++ {
			if !p.Submit(i) {
				t.Error("Submit returned false on an open pool")
				return
			}
		}
		p.Close()
	}()

	var results []int
	for r := range p.Results() {
		results = append(results, r)
	}

	if len(results) != 20 {
		t.Fatalf("got %d results; want 20", len(results))
	}
	sort.Ints(results)
	for i, r := range results {
		if want := (i + 1) * 2; r != want {
			t.Errorf("results[%d] = %d; want %d", i, r, want)
		}
	}
	if p.Completed() != 20 || p.Submitted() != 20 {
		t.Errorf("Completed/Submitted = %d/%d; want 20/20", p.Completed(), p.Submitted())
	}
}

func TestPoolRejectsAfterClose(t *testing.T) {
	p := NewPool(context.Background(), func(_ context.Context, n int) int { return n }, 1)
	p.Close()

	if p.Submit(1) {
		t.Error("Submit succeeded on a closed pool")
	}
	for range p.Results() {
	}
}

func TestPoolHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, func(_ context.Context, n int) int { return n }, 1)
	cancel()

	// Submissions fail once the context is canceled.
	deadline := time.After(time.Second)
	for p.Submit(1) {
		select {
		case <-deadline:
			t.Fatal("Submit kept succeeding after cancellation")
		default:
		}
	}
}

func TestPoolDefaultsWorkerCount(t *testing.T) {
	p := NewPool(context.Background(), func(_ context.Context, n int) int { return n }, 0)
	if p.workers <= 0 {
		t.Errorf("workers = %d; want > 0", p.workers)
	}
	p.Close()
	for range p.Results() {
	}
}
