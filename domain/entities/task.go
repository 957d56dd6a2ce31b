package entities

import "time"

// Job represents one tool run owned by the background worker
type Job struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    JobStatus `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Error     string    `json:"error,omitempty"`
}

// JobStatus represents the status of a job
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobStopping  JobStatus = "stopping"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)
