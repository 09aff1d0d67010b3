package model

import "time"

// JobStatus describes the lifecycle of an allocation job run.
type JobStatus string

// Valid job statuses.
const (
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// JobRun records one batch allocation run and its counters.
type JobRun struct {
	StartedAt     time.Time
	CompletedAt   *time.Time
	ID            string
	AgentID       string
	Status        JobStatus
	ErrorMessage  string
	Processed     int
	AutoAllocated int
	LLMAllocated  int
	NeedsReview   int
	Errors        int
}
