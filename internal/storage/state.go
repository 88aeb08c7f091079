package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	"codeberg.org/mutker/geotrackd/internal/model"
	"github.com/google/uuid"
)

const (
	modeStateKey = "mode_state"
	scheduleKey  = "schedule"
	deviceIDKey  = "device_id"
)

// LoadModeState returns the persisted controller state, defaulting to an
// inactive continuous-mode preference when nothing is stored yet.
func (s *sqliteStore) LoadModeState(ctx context.Context) (model.ModeState, error) {
	state := model.ModeState{Mode: model.ModeContinuous}

	raw, found, err := s.getState(ctx, modeStateKey)
	if err != nil || !found {
		return state, err
	}

	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return state, errFactory.Wrap(ErrStateDecode, err)
	}

	return state, nil
}

func (s *sqliteStore) SaveModeState(ctx context.Context, state model.ModeState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return errFactory.Wrap(ErrStateDecode, err)
	}

	return s.setState(ctx, modeStateKey, string(raw))
}

func (s *sqliteStore) LoadSchedule(ctx context.Context) (model.ScheduleConfig, bool, error) {
	var schedule model.ScheduleConfig

	raw, found, err := s.getState(ctx, scheduleKey)
	if err != nil || !found {
		return schedule, false, err
	}

	if err := json.Unmarshal([]byte(raw), &schedule); err != nil {
		return schedule, false, errFactory.Wrap(ErrStateDecode, err)
	}

	return schedule, true, nil
}

func (s *sqliteStore) SaveSchedule(ctx context.Context, schedule model.ScheduleConfig) error {
	raw, err := json.Marshal(schedule)
	if err != nil {
		return errFactory.Wrap(ErrStateDecode, err)
	}

	return s.setState(ctx, scheduleKey, string(raw))
}

// DeviceID returns the stable per-install identifier, generating one on
// first access.
func (s *sqliteStore) DeviceID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, found, err := s.getState(ctx, deviceIDKey)
	if err != nil {
		return "", err
	}
	if found {
		return id, nil
	}

	id = uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO app_state (key, value) VALUES (?, ?)`,
		deviceIDKey, id,
	); err != nil {
		return "", errFactory.Wrap(ErrStorageAccess, err)
	}

	return id, nil
}

func (s *sqliteStore) getState(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errFactory.Wrap(ErrStorageAccess, err)
	}

	return value, true, nil
}

func (s *sqliteStore) setState(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `
        INSERT INTO app_state (key, value) VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value
    `, key, value); err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}
