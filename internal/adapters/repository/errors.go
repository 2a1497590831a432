package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrNotFound      = errors.New("period not found")
	ErrInvalidPeriod = errors.New("invalid period")
)
