package api

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/kotoba-lab/sensei/pkg/models"
	"github.com/kotoba-lab/sensei/pkg/tutor"
)

// TutorChat handles POST /api/tutor/chat. The response is a server-sent
// event stream: one "data: <token>" frame per model token, a single
// `data: {"error":"<code>"}` frame on failure, and a terminal
// "data: [DONE]" frame in every case.
func (s *Server) TutorChat(c *gin.Context) {
	var req models.TutorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	events, err := s.tutor.Stream(c.Request.Context(), req)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	for event := range events {
		if event.Err != nil {
			s.writeSSEError(c, event.Err)
			break
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", event.Token)
		c.Writer.Flush()
	}

	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}

func (s *Server) writeSSEError(c *gin.Context, err error) {
	s.logger.Warn("tutor stream failed", "error", err)

	payload, merr := json.Marshal(gin.H{"error": tutor.ErrorCode(err)})
	if merr != nil {
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
	c.Writer.Flush()
}
