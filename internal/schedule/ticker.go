package schedule

import (
	"context"
	"sync"
	"time"
)

// TickFunc is invoked with the current wall-clock time on each tick.
type TickFunc func(now time.Time)

// Ticker is a cancellable repeating trigger. Once Stop returns, no further
// tick fires.
type Ticker struct {
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewTicker(interval time.Duration) *Ticker {
	return &Ticker{interval: interval}
}

// Start begins invoking tick at the configured cadence. Starting an
// already-running ticker is a no-op.
func (t *Ticker) Start(tick TickFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go t.run(ctx, tick, done)
}

// run owns its done channel; Stop nils the fields under the mutex, so the
// goroutine must not read them back.
func (t *Ticker) run(ctx context.Context, tick TickFunc, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			tick(now)
		}
	}
}

// Stop cancels the ticker and waits for the tick goroutine to exit.
// Stopping a stopped ticker is a no-op.
func (t *Ticker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.done = nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}
