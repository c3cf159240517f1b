package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hera/logger"
	"hera/types"
	"hera/websocket"
)

// JobQueue interface defines the methods for managing processing jobs
type JobQueue interface {
	Start()
	AddJob(jobType types.JobType, recordingID, title string) *types.ProcessingJob
	GetJob(id string) (*types.ProcessingJob, bool)
	GetAllJobs() []*types.ProcessingJob
	CancelJob(id string) bool
	SetJobStage(id, stage string, progress float64)
	SetJobStatus(id string, status types.JobStatus, errorMsg string)
}

// jobQueue manages processing jobs
type jobQueue struct {
	jobs        map[string]*types.ProcessingJob
	queue       chan *types.ProcessingJob
	activeJobs  map[string]*types.ProcessingJob
	mu          sync.RWMutex
	maxWorkers  int
	library     LibraryService
	transcriber Transcriber
	hub         websocket.Hub
}

// NewJobQueue creates a new job queue
func NewJobQueue(maxWorkers int, library LibraryService, transcriber Transcriber, hub websocket.Hub) JobQueue {
	return &jobQueue{
		jobs:        make(map[string]*types.ProcessingJob),
		queue:       make(chan *types.ProcessingJob, 100), // Buffer for 100 jobs
		activeJobs:  make(map[string]*types.ProcessingJob),
		maxWorkers:  maxWorkers,
		library:     library,
		transcriber: transcriber,
		hub:         hub,
	}
}

// AddJob adds a new job to the queue
func (jq *jobQueue) AddJob(jobType types.JobType, recordingID, title string) *types.ProcessingJob {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job := &types.ProcessingJob{
		ID:          uuid.New().String(),
		Type:        jobType,
		Status:      types.JobStatusQueued,
		RecordingID: recordingID,
		Title:       title,
		CreatedAt:   time.Now(),
	}

	jq.jobs[job.ID] = job
	jq.queue <- job

	return job
}

// GetJob retrieves a job by ID
func (jq *jobQueue) GetJob(id string) (*types.ProcessingJob, bool) {
	jq.mu.RLock()
	defer jq.mu.RUnlock()
	job, exists := jq.jobs[id]
	return job, exists
}

// GetAllJobs returns all jobs
func (jq *jobQueue) GetAllJobs() []*types.ProcessingJob {
	jq.mu.RLock()
	defer jq.mu.RUnlock()

	jobs := make([]*types.ProcessingJob, 0, len(jq.jobs))
	for _, job := range jq.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// CancelJob cancels a queued job
func (jq *jobQueue) CancelJob(id string) bool {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job, exists := jq.jobs[id]
	if !exists {
		return false
	}

	if job.Status == types.JobStatusQueued {
		job.Status = types.JobStatusCancelled
		now := time.Now()
		job.CompletedAt = &now
		return true
	}

	return false
}

// SetJobStage updates the human-readable stage and broadcasts progress
func (jq *jobQueue) SetJobStage(id, stage string, progress float64) {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job, exists := jq.jobs[id]
	if !exists {
		return
	}
	job.Stage = stage

	if jq.hub != nil {
		jq.hub.Broadcast(types.JobEvent{
			JobID:       id,
			RecordingID: job.RecordingID,
			Type:        "progress",
			Status:      string(job.Status),
			Stage:       stage,
			Progress:    progress,
			Message:     stage,
		})
	}
}

// SetJobStatus updates job status
func (jq *jobQueue) SetJobStatus(id string, status types.JobStatus, errorMsg string) {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job, exists := jq.jobs[id]
	if !exists {
		return
	}

	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	now := time.Now()
	if status == types.JobStatusProcessing && job.StartedAt == nil {
		job.StartedAt = &now
		jq.activeJobs[id] = job
	} else if status == types.JobStatusCompleted || status == types.JobStatusFailed || status == types.JobStatusCancelled {
		job.CompletedAt = &now
		delete(jq.activeJobs, id)
	}

	if jq.hub != nil {
		msgType := "status"
		message := string(status)
		progress := 0.0

		switch status {
		case types.JobStatusCompleted:
			msgType = "complete"
			progress = 100.0
			message = fmt.Sprintf("%s processed", job.Title)
		case types.JobStatusFailed:
			msgType = "error"
			message = errorMsg
		case types.JobStatusProcessing:
			message = fmt.Sprintf("Started processing %s", job.Title)
		}

		jq.hub.Broadcast(types.JobEvent{
			JobID:       id,
			RecordingID: job.RecordingID,
			Type:        msgType,
			Status:      string(status),
			Stage:       job.Stage,
			Progress:    progress,
			Message:     message,
		})
	}
}

// Start begins processing jobs
func (jq *jobQueue) Start() {
	for i := 0; i < jq.maxWorkers; i++ {
		go jq.worker()
	}
}

// worker processes jobs from the queue
func (jq *jobQueue) worker() {
	for job := range jq.queue {
		if job.Status == types.JobStatusCancelled {
			continue
		}

		jq.SetJobStatus(job.ID, types.JobStatusProcessing, "")

		ctx := context.Background()
		var err error
		switch job.Type {
		case types.JobTypeTranscribe:
			err = jq.runTranscribe(ctx, job)
		case types.JobTypeAnalyze:
			err = jq.runAnalyze(ctx, job)
		case types.JobTypeProcess:
			if err = jq.runTranscribe(ctx, job); err == nil {
				err = jq.runAnalyze(ctx, job)
			}
		}

		if err != nil {
			jq.SetJobStatus(job.ID, types.JobStatusFailed, err.Error())
			logger.Error("job failed",
				logger.String("jobId", job.ID),
				logger.String("recordingId", job.RecordingID),
				logger.ErrorField(err))
		} else {
			jq.SetJobStatus(job.ID, types.JobStatusCompleted, "")
			logger.Info("job completed",
				logger.String("jobId", job.ID),
				logger.String("recordingId", job.RecordingID))
		}
	}
}

// runTranscribe sends the audio out for transcription and stores the result
func (jq *jobQueue) runTranscribe(ctx context.Context, job *types.ProcessingJob) error {
	jq.SetJobStage(job.ID, "Transcribing audio", 10)

	rec, err := jq.library.Get(ctx, job.RecordingID)
	if err != nil {
		return fmt.Errorf("loading recording: %w", err)
	}

	text, err := jq.transcriber.Transcribe(ctx, rec.AudioPath)
	if err != nil {
		return fmt.Errorf("transcribing: %w", err)
	}

	if _, err := jq.library.SetTranscription(ctx, job.RecordingID, text); err != nil {
		return fmt.Errorf("saving transcription: %w", err)
	}

	jq.SetJobStage(job.ID, "Transcription saved", 50)
	return nil
}

// runAnalyze sends the transcription out for analysis and stores the result
func (jq *jobQueue) runAnalyze(ctx context.Context, job *types.ProcessingJob) error {
	jq.SetJobStage(job.ID, "Analyzing transcription", 60)

	rec, err := jq.library.Get(ctx, job.RecordingID)
	if err != nil {
		return fmt.Errorf("loading recording: %w", err)
	}
	if rec.Transcription == nil || strings.TrimSpace(*rec.Transcription) == "" {
		return fmt.Errorf("recording has no transcription to analyze")
	}

	raw, err := jq.transcriber.Analyze(ctx, *rec.Transcription)
	if err != nil {
		return fmt.Errorf("analyzing: %w", err)
	}

	rec, err = jq.library.SetAnalysis(ctx, job.RecordingID, raw)
	if err != nil {
		return fmt.Errorf("saving analysis: %w", err)
	}

	// A never-renamed recording picks up the suggested title once the
	// analysis lands
	if rec.HasPlaceholderTitle() {
		if a, decodeErr := types.DecodeAnalysis(raw); decodeErr == nil && strings.TrimSpace(a.SuggestedTitle) != "" {
			if _, err := jq.library.Rename(ctx, job.RecordingID, a.SuggestedTitle); err != nil {
				logger.Warn("applying suggested title failed",
					logger.String("id", job.RecordingID), logger.ErrorField(err))
			}
		}
	}

	jq.SetJobStage(job.ID, "Analysis saved", 95)
	return nil
}
