// Package reportcli renders report templates from snapshot files without
// running the HTTP server.
package reportcli

import "time"

// Config holds configuration for one CLI run.
type Config struct {
	DataDir    string        // Directory of period snapshot files
	Period     string        // Period to render; empty means latest
	Template   string        // Template file; "-" reads stdin
	Table      string        // Single placeholder rendered instead of a template
	OutputFile string        // Output file; empty writes stdout
	LogLevel   string        // debug, info, warn, error
	Timeout    time.Duration // Bound on the whole run
	List       bool          // Print table names and periods instead of rendering
}
