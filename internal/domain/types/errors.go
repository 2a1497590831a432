package types

import "errors"

// Sentinel kinds shared by the domain packages. Callers match with errors.Is.
var (
	// Input-shape errors.
	ErrExpectedList = errors.New("expected list")
	ErrExpectedMap  = errors.New("expected map")

	// Missing-required-column errors.
	ErrMissingColumn = errors.New("missing required column")

	// Unknown-identifier and contract errors.
	ErrUnknownTable       = errors.New("unknown table")
	ErrUnknownParameter   = errors.New("unknown parameter")
	ErrInvalidPlaceholder = errors.New("invalid placeholder")
	ErrInvalidParameters  = errors.New("invalid table parameters")
	ErrNoColumns          = errors.New("no columns left to render")
	ErrInvalidPeriod      = errors.New("invalid period key")
)
