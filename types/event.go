package types

import "time"

// LibraryChannel is the pseudo job ID used for events that concern the
// library as a whole rather than a single job.
const LibraryChannel = "library"

// AllChannel subscribes a client to every event regardless of job.
const AllChannel = "all"

// JobEvent represents a WebSocket update pushed to subscribed clients
type JobEvent struct {
	JobID       string    `json:"jobId"`
	RecordingID string    `json:"recordingId,omitempty"`
	Type        string    `json:"type"` // "status", "progress", "complete", "error", "library"
	Status      string    `json:"status,omitempty"`
	Stage       string    `json:"stage,omitempty"` // human-readable current step
	Progress    float64   `json:"progress"`        // 0-100 percentage
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
