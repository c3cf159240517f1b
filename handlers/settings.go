package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hera/config"
)

// SettingsHandler handles settings-related endpoints
type SettingsHandler struct {
	settings *config.SettingsStore
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *config.SettingsStore) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
	}
}

// GetSettings returns the current settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Load())
}

// UpdateSettings updates the user settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var newSettings config.UserSettings
	if err := c.ShouldBindJSON(&newSettings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid settings format",
			"details": err.Error(),
		})
		return
	}

	if newSettings.Theme == "" {
		newSettings.Theme = config.DefaultTheme
	}
	if !config.ValidTheme(newSettings.Theme) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid theme",
			"details": "theme must be one of: light, dark, system",
		})
		return
	}

	if err := h.settings.Save(newSettings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to save settings",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings updated successfully",
		"settings": newSettings,
	})
}
