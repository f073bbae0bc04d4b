package domain

import "time"

// RunStatus is the outcome recorded for a generation attempt.
type RunStatus string

// Run status constants.
const (
	RunStatusStarted RunStatus = "started"
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
)

// GenerationRun is an append-only audit record of one generation attempt.
type GenerationRun struct {
	ID          string
	EntityID    string
	EntityType  EntityType
	Status      RunStatus
	Prompt      string
	RawResponse string
	Error       string
	RetryCount  int
	Duration    time.Duration
	Timestamp   time.Time
}

// DurationMillis returns the attempt duration in whole milliseconds.
func (r GenerationRun) DurationMillis() int64 {
	return r.Duration.Milliseconds()
}
