package controller

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/geotrackd/internal/api"
	"codeberg.org/mutker/geotrackd/internal/collector"
	"codeberg.org/mutker/geotrackd/internal/logger"
	"codeberg.org/mutker/geotrackd/internal/model"
	"codeberg.org/mutker/geotrackd/internal/schedule"
	"codeberg.org/mutker/geotrackd/internal/storage"
)

const tickTimeout = time.Minute

// Controller is the top-level state machine deciding when collection runs.
// It is the sole writer of the persisted mode state. The modes are
// mutually exclusive: starting one tears the other down first.
type Controller struct {
	store     storage.Store
	collector *collector.Collector
	api       *api.Server
	ticker    *schedule.Ticker

	mu sync.Mutex
}

func New(store storage.Store, c *collector.Collector, server *api.Server, tickInterval time.Duration) *Controller {
	return &Controller{
		store:     store,
		collector: c,
		api:       server,
		ticker:    schedule.NewTicker(tickInterval),
	}
}

// Status returns the persisted mode state.
func (c *Controller) Status(ctx context.Context) (model.ModeState, error) {
	return c.store.LoadModeState(ctx)
}

// SetMode records the mode preference. It deliberately does not stop a
// running collector: only the explicit start/stop operations do.
func (c *Controller) SetMode(ctx context.Context, mode model.Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.store.LoadModeState(ctx)
	if err != nil {
		return err
	}

	state.Mode = mode

	return c.store.SaveModeState(ctx, state)
}

// StartContinuous activates continuous collection and the API server.
// Starting while already active is a no-op; a schedule is torn down first.
// An API bind failure is returned to the caller but leaves collection
// running (degraded, non-fatal).
func (c *Controller) StartContinuous(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.store.LoadModeState(ctx)
	if err != nil {
		return err
	}

	if state.ContinuousRunning && c.collector.Running() {
		return nil
	}

	if state.ScheduleActive {
		if err := c.stopScheduleLocked(ctx, &state); err != nil {
			return err
		}
	}

	state.ContinuousRunning = true
	if err := c.store.SaveModeState(ctx, state); err != nil {
		return err
	}

	c.collector.Start()
	logger.Info().Msg("continuous collection started")

	if err := c.api.Start(); err != nil {
		logger.Warn().Err(err).Msg("api server unavailable, collection continues")
		return err
	}

	return nil
}

// StopContinuous stops the collection loop and the API server. Stopping
// while idle is a no-op.
func (c *Controller) StopContinuous(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.store.LoadModeState(ctx)
	if err != nil {
		return err
	}

	return c.stopContinuousLocked(ctx, &state)
}

func (c *Controller) stopContinuousLocked(ctx context.Context, state *model.ModeState) error {
	c.collector.Stop()

	if err := c.api.Stop(ctx); err != nil {
		logger.Error().Err(err).Msg("api server shutdown failed")
	}

	if state.ContinuousRunning {
		state.ContinuousRunning = false
		if err := c.store.SaveModeState(ctx, *state); err != nil {
			return err
		}
	}

	logger.Info().Msg("continuous collection stopped")

	return nil
}

// StartSchedule persists the weekly window, arms the evaluation ticker and
// starts the API server. Collection itself begins only when a tick finds
// the window open.
func (c *Controller) StartSchedule(ctx context.Context, cfg model.ScheduleConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.store.LoadModeState(ctx)
	if err != nil {
		return err
	}

	if state.ContinuousRunning || c.collector.Running() {
		if err := c.stopContinuousLocked(ctx, &state); err != nil {
			return err
		}
	}

	if err := c.store.SaveSchedule(ctx, cfg); err != nil {
		return err
	}

	state.ScheduleActive = true
	if err := c.store.SaveModeState(ctx, state); err != nil {
		return err
	}

	c.ticker.Start(c.tick)
	logger.Info().
		Int("start_minute", cfg.StartMinute).
		Int("end_minute", cfg.EndMinute).
		Msg("schedule armed")

	if err := c.api.Start(); err != nil {
		logger.Warn().Err(err).Msg("api server unavailable, schedule remains armed")
		return err
	}

	return nil
}

// StopSchedule disarms the ticker and stops the API server. An in-flight
// one-shot collection is allowed to finish.
func (c *Controller) StopSchedule(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.store.LoadModeState(ctx)
	if err != nil {
		return err
	}

	return c.stopScheduleLocked(ctx, &state)
}

func (c *Controller) stopScheduleLocked(ctx context.Context, state *model.ModeState) error {
	c.ticker.Stop()

	if err := c.api.Stop(ctx); err != nil {
		logger.Error().Err(err).Msg("api server shutdown failed")
	}

	if state.ScheduleActive {
		state.ScheduleActive = false
		if err := c.store.SaveModeState(ctx, *state); err != nil {
			return err
		}
	}

	logger.Info().Msg("schedule disarmed")

	return nil
}

// Resume re-enters whichever mode was active when the process last exited.
func (c *Controller) Resume(ctx context.Context) error {
	state, err := c.store.LoadModeState(ctx)
	if err != nil {
		return err
	}

	switch {
	case state.ContinuousRunning:
		return c.StartContinuous(ctx)
	case state.ScheduleActive:
		cfg, found, err := c.store.LoadSchedule(ctx)
		if err != nil {
			return err
		}
		if !found {
			logger.Warn().Msg("schedule flagged active but no window stored, staying idle")
			return nil
		}
		return c.StartSchedule(ctx, cfg)
	}

	return nil
}

// Token returns the API token, creating one on first use.
func (c *Controller) Token(ctx context.Context) (string, error) {
	return c.store.GetOrCreateToken(ctx)
}

// ResetToken replaces the API token.
func (c *Controller) ResetToken(ctx context.Context) (string, error) {
	return c.store.ResetToken(ctx)
}

// tick evaluates the persisted window once; inside the window it triggers
// a single one-shot collection. Triggering while one is already in flight
// is a no-op.
func (c *Controller) tick(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	state, err := c.store.LoadModeState(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("schedule tick: failed to load mode state")
		return
	}
	if !state.ScheduleActive {
		return
	}

	cfg, found, err := c.store.LoadSchedule(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("schedule tick: failed to load window")
		return
	}
	if !found {
		return
	}

	if schedule.WithinWindow(now, cfg) {
		c.collector.RunOnce(ctx)
	}
}
