package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hera/services"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	library services.LibraryService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(library services.LibraryService) *HealthHandler {
	return &HealthHandler{
		library: library,
	}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "hera",
		"version":   "1.0.0",
		"timestamp": time.Now().Unix(),
	})
}

// APIStatus reports the library root and how many recordings it holds
func (h *HealthHandler) APIStatus(c *gin.Context) {
	recordings, _ := h.library.Reconcile(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"message":     "Hera API is running",
		"libraryRoot": h.library.Root(),
		"recordings":  len(recordings),
	})
}
