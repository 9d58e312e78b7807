package logging

// LogEntry represents a structured log record with fields relevant to
// evolutionary runs against a live browser target.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Run-specific fields
	RunID        string // Identifier of the evolutionary run
	Generation   int    // Generation index, -1 outside the loop
	ChromosomeID string // Chromosome being executed, if any
	Latency      int64  // Operation duration in milliseconds

	// General structured data
	Fields map[string]interface{}
}
