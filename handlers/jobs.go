package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hera/logger"
	"hera/services"
	"hera/store"
	"hera/types"
	"hera/websocket"
)

// JobHandler handles processing job endpoints
type JobHandler struct {
	jobQueue services.JobQueue
	library  services.LibraryService
	hub      websocket.Hub
}

// NewJobHandler creates a new job handler
func NewJobHandler(jq services.JobQueue, library services.LibraryService, hub websocket.Hub) *JobHandler {
	return &JobHandler{
		jobQueue: jq,
		library:  library,
		hub:      hub,
	}
}

// QueueTranscribe queues a transcription job for a recording
func (h *JobHandler) QueueTranscribe(c *gin.Context) {
	h.queue(c, types.JobTypeTranscribe, "Transcription queued successfully")
}

// QueueAnalyze queues an analysis job for a recording
func (h *JobHandler) QueueAnalyze(c *gin.Context) {
	h.queue(c, types.JobTypeAnalyze, "Analysis queued successfully")
}

// QueueProcess queues transcription followed by analysis
func (h *JobHandler) QueueProcess(c *gin.Context) {
	h.queue(c, types.JobTypeProcess, "Processing queued successfully")
}

func (h *JobHandler) queue(c *gin.Context, jobType types.JobType, message string) {
	id := c.Param("id")

	rec, err := h.library.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "recording not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load recording",
			"details": err.Error(),
		})
		return
	}

	job := h.jobQueue.AddJob(jobType, rec.ID, rec.Title)
	c.JSON(http.StatusCreated, gin.H{
		"message": message,
		"job":     job,
	})
}

// GetAllJobs returns all processing jobs
func (h *JobHandler) GetAllJobs(c *gin.Context) {
	jobs := h.jobQueue.GetAllJobs()
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJob returns a specific processing job by ID
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("jobId")
	job, exists := h.jobQueue.GetJob(jobID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "job not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job": job,
	})
}

// CancelJob cancels a processing job
func (h *JobHandler) CancelJob(c *gin.Context) {
	jobID := c.Param("jobId")
	cancelled := h.jobQueue.CancelJob(jobID)
	if !cancelled {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job cannot be cancelled (not found or already processing)",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "job cancelled successfully",
	})
}

// HandleWebSocketConnection handles WebSocket connections for one job's
// events. The library channel may be subscribed to the same way.
func (h *JobHandler) HandleWebSocketConnection(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job ID is required"})
		return
	}

	if jobID != types.LibraryChannel {
		if _, exists := h.jobQueue.GetJob(jobID); !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
	}

	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := websocket.NewClient(h.hub, conn, jobID)
	h.hub.RegisterClient(client)

	client.StartPumps()
}

// HandleWebSocketAllConnection handles WebSocket connections receiving
// every job and library event
func (h *JobHandler) HandleWebSocketAllConnection(c *gin.Context) {
	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := websocket.NewClient(h.hub, conn, types.AllChannel)
	h.hub.RegisterClient(client)

	client.StartPumps()
}
