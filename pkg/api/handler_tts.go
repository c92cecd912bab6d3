package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kotoba-lab/sensei/pkg/models"
)

// Speak handles POST /api/tts: synthesize the given text to WAV audio.
func (s *Server) Speak(c *gin.Context) {
	var req models.SpeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	wav, err := s.tts.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		s.mapServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "audio/wav", wav)
}
