package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"hera/handlers"
	"hera/logger"
	"hera/middleware"
	"hera/services"
	"hera/websocket"
)

// startWebServer wires the full stack and blocks serving HTTP.
func startWebServer(app *app, port string) error {
	// Set production mode if not specified
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize services
	hub := websocket.NewHub()
	go hub.Run()

	jobQueue := services.NewJobQueue(app.cfg.Workers, app.library, app.transcriber(), hub)
	jobQueue.Start()

	watcher, err := services.NewLibraryWatcher(app.library, hub)
	if err != nil {
		logger.Warn("filesystem watcher unavailable, relying on on-demand scans", logger.ErrorField(err))
	} else {
		go watcher.Run(context.Background())
	}

	// Initialize handlers
	recordingHandler := handlers.NewRecordingHandler(app.library)
	jobHandler := handlers.NewJobHandler(jobQueue, app.library, hub)
	searchHandler := handlers.NewSearchHandler(app.library)
	healthHandler := handlers.NewHealthHandler(app.library)
	settingsHandler := handlers.NewSettingsHandler(app.settings)

	// Setup router
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply middleware
	r.Use(middleware.CORS())
	r.Use(middleware.Logging())
	r.Use(middleware.Security())

	// Setup routes
	setupRoutes(r, recordingHandler, jobHandler, searchHandler, healthHandler, settingsHandler)

	logger.Info("hera server starting",
		logger.String("port", port),
		logger.String("library", app.library.Root()))

	if err := r.Run(":" + port); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, recordingHandler *handlers.RecordingHandler, jobHandler *handlers.JobHandler, searchHandler *handlers.SearchHandler, healthHandler *handlers.HealthHandler, settingsHandler *handlers.SettingsHandler) {
	// Health check endpoint
	r.GET("/health", healthHandler.HealthCheck)

	// API routes group
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		// Search endpoint
		apiGroup.GET("/search", searchHandler.Search)

		// Recording library endpoints
		recordingsGroup := apiGroup.Group("/recordings")
		{
			recordingsGroup.GET("", recordingHandler.ListRecordings)
			recordingsGroup.POST("", recordingHandler.UploadRecording)
			recordingsGroup.GET("/:id", recordingHandler.GetRecording)
			recordingsGroup.PATCH("/:id", recordingHandler.UpdateRecording)
			recordingsGroup.DELETE("/:id", recordingHandler.DeleteRecording)
			recordingsGroup.GET("/:id/audio", recordingHandler.StreamAudio)

			// Queue background processing
			recordingsGroup.POST("/:id/transcribe", jobHandler.QueueTranscribe)
			recordingsGroup.POST("/:id/analyze", jobHandler.QueueAnalyze)
			recordingsGroup.POST("/:id/process", jobHandler.QueueProcess)
		}

		// Job management endpoints
		jobsGroup := apiGroup.Group("/jobs")
		{
			jobsGroup.GET("", jobHandler.GetAllJobs)
			jobsGroup.GET("/:jobId", jobHandler.GetJob)
			jobsGroup.DELETE("/:jobId", jobHandler.CancelJob)
		}

		// WebSocket endpoints for real-time progress
		wsGroup := apiGroup.Group("/ws")
		{
			// WebSocket endpoint for specific job progress
			wsGroup.GET("/jobs/:jobId", jobHandler.HandleWebSocketConnection)

			// WebSocket endpoint for all job progress
			wsGroup.GET("/jobs", jobHandler.HandleWebSocketAllConnection)
		}

		// Settings endpoints
		apiGroup.GET("/settings", settingsHandler.GetSettings)
		apiGroup.POST("/settings", settingsHandler.UpdateSettings)
	}
}
