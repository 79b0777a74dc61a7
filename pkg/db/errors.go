package db

import "errors"

var (
	// Validation Errors
	ErrMissingDBName = errors.New("database name is required")

	// Connection Errors
	ErrInvalidConfig = errors.New("invalid database configuration")
	ErrFailedConnect = errors.New("failed to connect to database")
	ErrFailedPing    = errors.New("failed to ping database")

	// Snapshot Errors
	ErrNoSnapshot = errors.New("no snapshot stored")
)
