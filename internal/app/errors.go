package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoData = errors.New("no snapshot data loaded")
)
