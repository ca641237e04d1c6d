package worker

import "time"

// DefaultJobTimeout bounds a single sync job end to end, including
// attachment transfer. Nothing in a job may block indefinitely.
const DefaultJobTimeout = 2 * time.Minute

// ============================================================================
// Log Messages - Worker Pool
// ============================================================================

const (
	// LogMsgWorkerJobFailed is logged when a worker fails to process a job
	LogMsgWorkerJobFailed = "Worker job failed"

	// LogMsgWorkerJobPanicked is logged when a job panics; the worker survives
	LogMsgWorkerJobPanicked = "Worker job panicked"
)
