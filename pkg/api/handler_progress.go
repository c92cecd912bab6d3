package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Progress handles GET /api/progress.
func (s *Server) Progress(c *gin.Context) {
	overview, err := s.progress.Overview(c.Request.Context())
	if err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
