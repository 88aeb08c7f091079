package storage

import "codeberg.org/mutker/geotrackd/internal/errors"

const (
	// Configuration errors
	ErrInvalidDBPath = errors.ErrorCode("storage_invalid_db_path")

	// Storage errors
	ErrStorageInit      = errors.ErrorCode("storage_init_failed")
	ErrStorageAccess    = errors.ErrorCode("storage_access_failed")
	ErrStorageClose     = errors.ErrorCode("storage_close_failed")
	ErrSchemaInitFailed = errors.ErrorCode("storage_schema_init_failed")

	// Record errors
	ErrInvalidSample = errors.ErrorCode("storage_invalid_sample")
	ErrStateDecode   = errors.ErrorCode("storage_state_decode_failed")
)

var errFactory = errors.New()
