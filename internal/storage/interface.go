package storage

import (
	"context"

	"codeberg.org/mutker/geotrackd/internal/model"
)

// Store is the durable keyed storage the agent core depends on: an
// append-only sample log, a singleton credential record, and a small
// key-value area for persisted controller state.
type Store interface {
	// Samples. Writes are append-only; rows are never updated.
	InsertSample(ctx context.Context, sample model.Sample) error
	SamplesByTimeRange(ctx context.Context, start, end int64) ([]model.Sample, error)
	LatestSample(ctx context.Context) (*model.Sample, error)
	CountSamples(ctx context.Context) (int64, error)
	DeleteSamplesBefore(ctx context.Context, cutoff int64) (int64, error)
	DeleteAllSamples(ctx context.Context) error

	// Credential singleton. GetOrCreateToken generates a token on first
	// access; Token returns "" when none is stored.
	GetOrCreateToken(ctx context.Context) (string, error)
	Token(ctx context.Context) (string, error)
	ResetToken(ctx context.Context) (string, error)
	DeleteToken(ctx context.Context) error

	// Persisted controller state.
	LoadModeState(ctx context.Context) (model.ModeState, error)
	SaveModeState(ctx context.Context, state model.ModeState) error
	LoadSchedule(ctx context.Context) (model.ScheduleConfig, bool, error)
	SaveSchedule(ctx context.Context, schedule model.ScheduleConfig) error
	DeviceID(ctx context.Context) (string, error)

	Close() error
}

type Config struct {
	Path string
}

func (c Config) Validate() error {
	if c.Path == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	return nil
}
