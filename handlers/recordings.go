package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"hera/logger"
	"hera/services"
	"hera/store"
	"hera/types"
)

// RecordingHandler handles recording management endpoints
type RecordingHandler struct {
	library services.LibraryService
}

// NewRecordingHandler creates a new recording handler
func NewRecordingHandler(library services.LibraryService) *RecordingHandler {
	return &RecordingHandler{
		library: library,
	}
}

// ListRecordings scans the library and returns every recording, newest first
func (h *RecordingHandler) ListRecordings(c *gin.Context) {
	recordings, _ := h.library.Reconcile(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"recordings": types.Views(recordings),
		"count":      len(recordings),
	})
}

// GetRecording returns a single recording by ID
func (h *RecordingHandler) GetRecording(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{
		"recording": rec.View(),
	})
}

// UploadRecording stores an uploaded audio file as a new recording
func (h *RecordingHandler) UploadRecording(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "audio file is required",
			"details": err.Error(),
		})
		return
	}

	format := services.FormatFromFilename(fileHeader.Filename)
	if format == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "unsupported audio format",
			"details": "supported formats: m4a, wav, mp3, flac",
		})
		return
	}

	opts := services.CreateOptions{
		Format: format,
		Title:  c.PostForm("title"),
	}

	if v := c.PostForm("duration"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || d < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "duration must be a non-negative number of seconds",
			})
			return
		}
		opts.Duration = d
	}

	if v := c.PostForm("recordedAt"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid recordedAt timestamp",
				"details": "must be RFC 3339",
			})
			return
		}
		opts.RecordedAt = t
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to read upload",
			"details": err.Error(),
		})
		return
	}
	defer src.Close()

	rec, err := h.library.Create(c.Request.Context(), src, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to create recording",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Recording created successfully",
		"recording": rec.View(),
	})
}

// UpdateRecording renames a recording
func (h *RecordingHandler) UpdateRecording(c *gin.Context) {
	id := c.Param("id")

	var req types.UpdateRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	rec, err := h.library.Rename(c.Request.Context(), id, req.Title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "recording not found",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "failed to rename recording",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Recording updated successfully",
		"recording": rec.View(),
	})
}

// DeleteRecording removes a recording's folder and metadata
func (h *RecordingHandler) DeleteRecording(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.library.Get(c.Request.Context(), id); err != nil {
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

	if err := h.library.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to delete recording",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recording deleted successfully",
	})
}

// StreamAudio streams a recording's audio with support for range requests
func (h *RecordingHandler) StreamAudio(c *gin.Context) {
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

	fileInfo, err := os.Stat(rec.AudioPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "audio file access error",
			"details": err.Error(),
		})
		return
	}

	file, err := os.Open(rec.AudioPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to open audio file",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	contentType := services.ContentTypeFor(rec.AudioFormat)

	// Handle range requests for seeking
	rangeHeader := c.GetHeader("Range")
	if rangeHeader != "" {
		h.handleRangeRequest(c, file, fileInfo.Size(), rangeHeader, contentType)
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Length", strconv.FormatInt(fileInfo.Size(), 10))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=3600")

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		logger.Debug("streaming audio interrupted",
			logger.String("id", id), logger.ErrorField(err))
	}
}

// handleRangeRequest handles HTTP range requests for efficient seeking
func (h *RecordingHandler) handleRangeRequest(c *gin.Context, file *os.File, fileSize int64, rangeHeader, contentType string) {
	// Parse range header (e.g., "bytes=0-1023" or "bytes=1024-")
	if !strings.HasPrefix(rangeHeader, "bytes=") {
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	rangeSpec := strings.TrimPrefix(rangeHeader, "bytes=")
	ranges := strings.Split(rangeSpec, "-")

	if len(ranges) != 2 {
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	var start, end int64
	var err error

	if ranges[0] != "" {
		start, err = strconv.ParseInt(ranges[0], 10, 64)
		if err != nil || start < 0 {
			c.Status(http.StatusRequestedRangeNotSatisfiable)
			return
		}
	}

	if ranges[1] != "" {
		end, err = strconv.ParseInt(ranges[1], 10, 64)
		if err != nil || end < start {
			c.Status(http.StatusRequestedRangeNotSatisfiable)
			return
		}
	} else {
		end = fileSize - 1
	}

	if start >= fileSize {
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if end >= fileSize {
		end = fileSize - 1
	}

	contentLength := end - start + 1

	if _, err := file.Seek(start, 0); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to seek audio file",
		})
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Length", strconv.FormatInt(contentLength, 10))
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=3600")
	c.Status(http.StatusPartialContent)

	if _, err := io.CopyN(c.Writer, file, contentLength); err != nil {
		logger.Debug("streaming audio range interrupted", logger.ErrorField(err))
	}
}
