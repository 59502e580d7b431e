// ABOUTME: Tests for the inbox poller lifecycle
// ABOUTME: Covers immediate refresh, tick cadence, and generation discard

package inbox

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoller_StartRefreshesImmediately(t *testing.T) {
	fb := newFakeBackend(t)
	agg := fb.newAggregator()

	var updates atomic.Int64
	done := make(chan struct{}, 1)
	p := NewPoller(agg, time.Hour, func(Snapshot) {
		updates.Add(1)
		select {
		case done <- struct{}{}:
		default:
		}
	})

	p.Start()
	defer p.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered after Start")
	}

	if got := updates.Load(); got != 1 {
		t.Errorf("updates = %d, want 1 (immediate refresh only, interval is an hour)", got)
	}
	if !p.Running() {
		t.Error("Running = false, want true")
	}
}

func TestPoller_TicksAtInterval(t *testing.T) {
	fb := newFakeBackend(t)
	agg := fb.newAggregator()

	var updates atomic.Int64
	p := NewPoller(agg, 30*time.Millisecond, func(Snapshot) {
		updates.Add(1)
	})

	p.Start()
	time.Sleep(110 * time.Millisecond)
	p.Stop()

	// Immediate refresh plus roughly three ticks
	if got := updates.Load(); got < 2 {
		t.Errorf("updates = %d, want at least 2", got)
	}
}

func TestPoller_StopDiscardsInFlightResult(t *testing.T) {
	fb := newFakeBackend(t)
	fb.listDelay = 80 * time.Millisecond
	agg := fb.newAggregator()

	var updates atomic.Int64
	p := NewPoller(agg, time.Hour, func(Snapshot) {
		updates.Add(1)
	})

	p.Start()
	time.Sleep(10 * time.Millisecond) // let the immediate refresh get in flight
	p.Stop()

	time.Sleep(200 * time.Millisecond) // wait out the fetch
	if got := updates.Load(); got != 0 {
		t.Errorf("updates = %d, want 0 (result settled after Stop)", got)
	}
	if p.Running() {
		t.Error("Running = true after Stop, want false")
	}
}

func TestPoller_NoOverlappingCycles(t *testing.T) {
	fb := newFakeBackend(t)
	fb.listDelay = 40 * time.Millisecond
	agg := fb.newAggregator()

	// Ticks fire faster than a fetch completes; cycles must stay sequential
	p := NewPoller(agg, 15*time.Millisecond, func(Snapshot) {})

	p.Start()
	time.Sleep(200 * time.Millisecond)
	p.Stop()
	time.Sleep(100 * time.Millisecond) // let the in-flight cycle settle

	// Each cycle issues exactly four list requests; a partial batch would
	// mean two cycles ran concurrently
	if got := fb.listGets.Load(); got%4 != 0 {
		t.Errorf("list requests = %d, want a multiple of 4", got)
	}
}

func TestPoller_RestartAfterStop(t *testing.T) {
	fb := newFakeBackend(t)
	agg := fb.newAggregator()

	var mu sync.Mutex
	var delivered []Snapshot
	done := make(chan struct{}, 2)
	p := NewPoller(agg, time.Hour, func(snap Snapshot) {
		mu.Lock()
		delivered = append(delivered, snap)
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	})

	p.Start()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after first Start")
	}
	p.Stop()

	p.Start()
	defer p.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after restart")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) < 2 {
		t.Errorf("delivered = %d snapshots, want at least 2", len(delivered))
	}
}
