// ABOUTME: Fixed-interval poller driving the aggregator while the inbox is open
// ABOUTME: Generation-guarded so results never mutate a torn-down surface

package inbox

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Poller runs one refresh immediately on Start and then one per interval
// until Stop. There is a single timer per poller, never one per item. A tick
// that fires while a refresh is still in flight is dropped. Snapshots are
// delivered through the onUpdate callback, tagged with a generation so a
// result arriving after Stop is discarded instead of mutating a surface
// that no longer exists.
type Poller struct {
	agg      *Aggregator
	interval time.Duration
	onUpdate func(Snapshot)

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    atomic.Uint64
}

// NewPoller creates a poller over the aggregator. onUpdate is invoked once
// per applied cycle while the poller is running.
func NewPoller(agg *Aggregator, interval time.Duration, onUpdate func(Snapshot)) *Poller {
	return &Poller{
		agg:      agg,
		interval: interval,
		onUpdate: onUpdate,
	}
}

// Start begins polling with an immediate refresh. Starting a running poller
// restarts it under a fresh generation.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}

	gen := p.gen.Add(1)
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	go p.loop(ctx, gen)
}

// Stop suspends polling and invalidates any in-flight result
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gen.Add(1)
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Running reports whether the poller is currently active
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) loop(ctx context.Context, gen uint64) {
	p.refreshOnce(ctx, gen)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshOnce(ctx, gen)
			// Drop any tick that queued up while the refresh ran; the
			// next fetch waits for a fresh interval
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

func (p *Poller) refreshOnce(ctx context.Context, gen uint64) {
	snap, err := p.agg.Refresh(ctx)
	if err != nil {
		slog.Warn("Inbox poll failed", "error", err)
		return
	}

	// The surface this poller served may be gone by the time the fetch
	// settles; deliver only when the generation still matches
	if p.gen.Load() != gen {
		slog.Debug("Discarding poll result after stop", "gen", gen)
		return
	}
	if p.onUpdate != nil {
		p.onUpdate(snap)
	}
}
