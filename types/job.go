package types

import "time"

// JobType represents the kind of processing a job performs
type JobType string

const (
	JobTypeTranscribe JobType = "transcribe"
	JobTypeAnalyze    JobType = "analyze"
	JobTypeProcess    JobType = "process" // transcribe, then analyze
)

// JobStatus represents the current status of a processing job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// ProcessingJob represents one unit of background work against a recording
type ProcessingJob struct {
	ID          string     `json:"id"`
	Type        JobType    `json:"type"`
	Status      JobStatus  `json:"status"`
	RecordingID string     `json:"recordingId"`
	Title       string     `json:"title"` // recording title when the job was queued
	Stage       string     `json:"stage,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
