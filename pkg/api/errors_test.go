package api

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kotoba-lab/sensei/pkg/services"
	"github.com/kotoba-lab/sensei/pkg/tts"
)

func TestMapServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := &Server{logger: slog.Default()}

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", services.NewValidationError("score", "must be one of 0, 2, 3, 5"), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: card", services.ErrNotFound), http.StatusNotFound},
		{"duplicate", fmt.Errorf("%w: card", services.ErrAlreadyExists), http.StatusConflict},
		{"tts validation", tts.ErrTextTooLong, http.StatusBadRequest},
		{"tts unavailable", tts.ErrUnavailable, http.StatusServiceUnavailable},
		{"bad connection", fmt.Errorf("query failed: %w", driver.ErrBadConn), http.StatusServiceUnavailable},
		{"connection refused", fmt.Errorf("query failed: %w", &net.OpError{Op: "dial", Err: errors.New("connection refused")}), http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/progress", nil)

			s.mapServiceError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), "detail")
		})
	}
}

func TestMapServiceErrorNamesDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := &Server{logger: slog.Default()}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/progress", nil)

	s.mapServiceError(c, fmt.Errorf("failed to aggregate: %w", driver.ErrBadConn))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database")
}
