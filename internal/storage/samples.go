package storage

import (
	"context"
	"database/sql"

	"codeberg.org/mutker/geotrackd/internal/model"
)

func (s *sqliteStore) InsertSample(ctx context.Context, sample model.Sample) error {
	if sample.DeviceID == "" {
		return errFactory.New(ErrInvalidSample)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO sensor_data (device_id, latitude, longitude, timestamp)
        VALUES (?, ?, ?, ?)
    `,
		sample.DeviceID,
		sample.Latitude,
		sample.Longitude,
		sample.Timestamp,
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

// SamplesByTimeRange returns samples with start <= timestamp <= end, newest
// first. An inverted range yields an empty result, not an error.
func (s *sqliteStore) SamplesByTimeRange(ctx context.Context, start, end int64) ([]model.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, device_id, latitude, longitude, timestamp
        FROM sensor_data
        WHERE timestamp BETWEEN ? AND ?
        ORDER BY timestamp DESC
    `, start, end)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	samples := make([]model.Sample, 0)
	for rows.Next() {
		var sample model.Sample
		if err := rows.Scan(&sample.ID, &sample.DeviceID, &sample.Latitude, &sample.Longitude, &sample.Timestamp); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return samples, nil
}

func (s *sqliteStore) LatestSample(ctx context.Context) (*model.Sample, error) {
	var sample model.Sample
	err := s.db.QueryRowContext(ctx, `
        SELECT id, device_id, latitude, longitude, timestamp
        FROM sensor_data
        ORDER BY timestamp DESC, id DESC
        LIMIT 1
    `).Scan(&sample.ID, &sample.DeviceID, &sample.Latitude, &sample.Longitude, &sample.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return &sample, nil
}

func (s *sqliteStore) CountSamples(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sensor_data`).Scan(&count); err != nil {
		return 0, errFactory.Wrap(ErrStorageAccess, err)
	}

	return count, nil
}

// DeleteSamplesBefore removes samples older than the cutoff and reports
// how many rows went away.
func (s *sqliteStore) DeleteSamplesBefore(ctx context.Context, cutoff int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM sensor_data WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, errFactory.Wrap(ErrStorageAccess, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, errFactory.Wrap(ErrStorageAccess, err)
	}

	return deleted, nil
}

func (s *sqliteStore) DeleteAllSamples(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sensor_data`); err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}
