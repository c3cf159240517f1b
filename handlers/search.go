package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hera/services"
	"hera/types"
)

// SearchHandler handles search endpoints
type SearchHandler struct {
	library services.LibraryService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(library services.LibraryService) *SearchHandler {
	return &SearchHandler{
		library: library,
	}
}

// Search finds recordings whose title or transcription matches the query
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "query parameter 'q' is required",
		})
		return
	}

	results, err := h.library.Search(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "search failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"results": types.Views(results),
		"count":   len(results),
	})
}
