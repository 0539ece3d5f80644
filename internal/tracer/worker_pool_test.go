package tracer

import (
	"runtime"
	"sync"
	"testing"
)

func TestNewWorkerPool(t *testing.T) {
	pool := NewWorkerPool(4)
	if pool == nil {
		t.Fatal("Expected non-nil worker pool")
	}
	if got := pool.GetStats().Workers; got != 4 {
		t.Errorf("Expected 4 workers, got %d", got)
	}
}

func TestNewWorkerPool_ZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	if got := pool.GetStats().Workers; got != runtime.NumCPU() {
		t.Errorf("Expected %d workers, got %d", runtime.NumCPU(), got)
	}
}

func TestWorkerPool_Submit(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Close()

	var counter int
	var mu sync.Mutex

	for i := 0; i < 5; i++ {
		if !pool.Submit(func() {
			mu.Lock()
			counter++
			mu.Unlock()
		}) {
			t.Fatal("Expected submit to succeed on an open pool")
		}
	}

	pool.Wait()

	if counter != 5 {
		t.Errorf("Expected counter to be 5, got %d", counter)
	}

	stats := pool.GetStats()
	if stats.TotalJobs != 5 || stats.CompletedJobs != 5 {
		t.Errorf("Expected 5/5 jobs, got %d/%d", stats.CompletedJobs, stats.TotalJobs)
	}
	if stats.ActiveWorkers != 0 {
		t.Errorf("Expected no active workers after Wait, got %d", stats.ActiveWorkers)
	}
}

func TestWorkerPool_Concurrent(t *testing.T) {
	pool := NewWorkerPool(3)
	pool.Start()
	defer pool.Close()

	var results []int
	var mu sync.Mutex

	for i := 0; i < 10; i++ {
		value := i
		pool.Submit(func() {
			mu.Lock()
			results = append(results, value*2)
			mu.Unlock()
		})
	}

	pool.Wait()

	if len(results) != 10 {
		t.Errorf("Expected 10 results, got %d", len(results))
	}
}

func TestWorkerPool_StartOnce(t *testing.T) {
	pool := NewWorkerPool(2)

	pool.Start()
	pool.Start()
	defer pool.Close()

	done := make(chan struct{})
	pool.Submit(func() { close(done) })
	pool.Wait()

	select {
	case <-done:
	default:
		t.Error("Expected job to run")
	}
}

func TestWorkerPool_SubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	pool.Close()
	pool.Close()

	if pool.Submit(func() {}) {
		t.Error("Expected submit to fail on a closed pool")
	}
}
