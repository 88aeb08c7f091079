package probe

import (
	"context"

	"codeberg.org/mutker/geotrackd/internal/logger"
	"codeberg.org/mutker/geotrackd/internal/model"
)

type probe struct {
	primary   LocationProvider
	secondary LocationProvider
	status    *statusReader
}

// New builds the device probe from the configured sources: gpsd as the
// high-accuracy primary, the static position as the coarse secondary.
func New(cfg Config) DeviceProbe {
	return &probe{
		primary:   NewGpsdProvider(cfg.Gpsd),
		secondary: NewStaticProvider(cfg.Fallback, cfg.FallbackLat, cfg.FallbackLon),
		status:    newStatusReader(cfg.DataDir, cfg.Connectivity),
	}
}

// NewWithProviders wires explicit providers; the primary wins whenever it
// yields a reading.
func NewWithProviders(primary, secondary LocationProvider, cfg Config) DeviceProbe {
	return &probe{
		primary:   primary,
		secondary: secondary,
		status:    newStatusReader(cfg.DataDir, cfg.Connectivity),
	}
}

func (p *probe) CurrentLocation(ctx context.Context) (Location, error) {
	location, err := p.primary.CurrentLocation(ctx)
	if err == nil {
		return location, nil
	}

	logger.Debug().
		Str("provider", p.primary.Name()).
		Err(err).
		Msg("primary location source unavailable, trying fallback")

	location, ferr := p.secondary.CurrentLocation(ctx)
	if ferr == nil {
		return location, nil
	}

	return Location{}, errFactory.Wrap(ErrUnavailable, err)
}

func (p *probe) Status(ctx context.Context) model.DeviceStatus {
	return p.status.snapshot(ctx)
}
