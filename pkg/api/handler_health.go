package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kotoba-lab/sensei/pkg/database"
	"github.com/kotoba-lab/sensei/pkg/models"
)

// Health reports the status of the three external dependencies: the
// database, the Ollama server, and the Piper installation. Missing AI
// dependencies degrade the status but do not fail the endpoint.
func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	report := gin.H{"status": "ok"}

	dbHealth, err := database.Health(ctx, s.db.DB())
	report["db"] = dbHealth
	if err != nil {
		report["status"] = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	report["ollama"] = "ok"
	if err := s.tutor.Health(ctx); err != nil {
		report["ollama"] = "unavailable"
		if report["status"] == "ok" {
			report["status"] = "degraded"
		}
	}

	report["piper"] = "ok"
	if !s.tts.Available() {
		report["piper"] = "unavailable"
		if report["status"] == "ok" {
			report["status"] = "degraded"
		}
	}

	report["schema_version"] = ""
	if v, err := s.settings.Get(ctx, models.MetaKeyDBVersion); err == nil {
		report["schema_version"] = v
	}

	c.JSON(status, report)
}
