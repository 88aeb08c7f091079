package collector

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/geotrackd/internal/logger"
	"codeberg.org/mutker/geotrackd/internal/model"
	"codeberg.org/mutker/geotrackd/internal/probe"
	"codeberg.org/mutker/geotrackd/internal/storage"
)

// Collector produces samples at the cadence of the active mode: a
// self-re-arming loop in continuous mode, a single probe-and-store cycle in
// one-shot mode. A probe with no usable reading skips the cycle; it never
// stops a continuous loop.
type Collector struct {
	probe    probe.DeviceProbe
	store    storage.Store
	interval time.Duration
	deviceID string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	collecting atomic.Bool
}

func New(p probe.DeviceProbe, s storage.Store, interval time.Duration, deviceID string) *Collector {
	return &Collector{
		probe:    p,
		store:    s,
		interval: interval,
		deviceID: deviceID,
	}
}

// Start begins continuous collection: one immediate cycle, then a new cycle
// each interval. Each re-arm is scheduled relative to the completion of the
// previous cycle, so timing error never compounds beyond one probe duration
// per cycle. Starting a running collector is a no-op.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	go c.run(ctx, done)
}

// run owns its done channel; Stop nils the fields under the mutex, so the
// goroutine must not read them back.
func (c *Collector) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		c.collect(ctx)

		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Stop cancels the pending re-arm and waits for any in-flight cycle to
// finish. After Stop returns no further sample is written. Stopping a
// stopped collector is a no-op.
func (c *Collector) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// Running reports whether the continuous loop is active.
func (c *Collector) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cancel != nil
}

// RunOnce performs a single probe-and-store cycle. Triggering while a
// one-shot is already in flight is a safe no-op.
func (c *Collector) RunOnce(ctx context.Context) {
	if !c.collecting.CompareAndSwap(false, true) {
		return
	}
	defer c.collecting.Store(false)

	c.collect(ctx)
}

func (c *Collector) collect(ctx context.Context) {
	location, err := c.probe.CurrentLocation(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("no location reading, skipping cycle")
		return
	}

	sample := model.Sample{
		DeviceID:  c.deviceID,
		Latitude:  location.Latitude,
		Longitude: location.Longitude,
		Timestamp: time.Now().UnixMilli(),
	}

	if err := c.store.InsertSample(ctx, sample); err != nil {
		logger.Error().Err(err).Msg("failed to persist sample, skipping cycle")
		return
	}

	logger.Info().
		Float64("latitude", sample.Latitude).
		Float64("longitude", sample.Longitude).
		Msg("sample collected")
}
