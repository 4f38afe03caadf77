package session

// Session constants
const (
	// Hamming distance at or below which two display frames count as unchanged
	MaxHashDistance = 5

	// Captures per second when Watch is given no rate
	DefaultWatchRate = 0.5

	// Pending jobs accepted before submitters block
	JobQueueSize = 8

	// Per-subscriber event buffer; events beyond it are dropped
	EventBuffer = 16
)
