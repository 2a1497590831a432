package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidQuery = errors.New("invalid query parameter")
	ErrEmptyBody    = errors.New("empty request body")
)
