package loader

import "errors"

// Sentinel kinds for snapshot loading errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported snapshot format")
	ErrMissingData       = errors.New("snapshot has no data section")
	ErrReadSnapshot      = errors.New("read snapshot failed")
)
