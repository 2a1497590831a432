package reportcli

import (
	"errors"
	"io"
)

// Sentinel errors for CLI input.
var (
	ErrNoInput       = errors.New("one of -template, -table or -list is required")
	ErrConflictInput = errors.New("-template and -table are mutually exclusive")
)

// Validate checks that exactly one kind of input was requested.
func (c *Config) Validate() error {
	switch {
	case c.List:
		return nil
	case c.Template != "" && c.Table != "":
		return ErrConflictInput
	case c.Template == "" && c.Table == "":
		return ErrNoInput
	}
	return nil
}

// ShowHelp prints usage information for the render tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `rankdelta render
================

Renders markdown report templates from period snapshot files.

Usage:
  go run ./cmd/render [options]

Options:
  -data string
        Directory of snapshot files (default from RANKDELTA_DATA_DIR or "data")
  -period string
        Period to render, YYYY-MM or YYYY (default: latest loaded)
  -template string
        Template file with {{tables.<name>|...}} placeholders; "-" reads stdin
  -table string
        Render a single placeholder, e.g. "{{tables.razors|rows:10|deltas:true}}"
  -output string
        Output file (default: stdout)
  -list
        Print table names and loaded periods
  -log-level string
        debug, info, warn or error (default "warn")
  -timeout duration
        Bound on the whole run (default 30s)
  -help
        Show this help message

Examples:
  # Render the monthly report
  go run ./cmd/render -data ./data -period 2025-05 -template report.md

  # Render one table
  go run ./cmd/render -table "{{tables.soap-makers|rows:5|deltas:true}}"
`)
}
