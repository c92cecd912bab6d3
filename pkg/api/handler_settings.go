package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AllSettings handles GET /api/settings.
func (s *Server) AllSettings(c *gin.Context) {
	settings, err := s.settings.All(c.Request.Context())
	if err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetSetting handles GET /api/settings/:key.
func (s *Server) GetSetting(c *gin.Context) {
	key := c.Param("key")
	value, err := s.settings.Get(c.Request.Context(), key)
	if err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

type settingUpdate struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

// UpdateSetting handles POST /api/settings: upsert one editable setting.
func (s *Server) UpdateSetting(c *gin.Context) {
	var req settingUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := s.settings.Update(c.Request.Context(), req.Key, req.Value); err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "key": req.Key, "value": req.Value})
}
