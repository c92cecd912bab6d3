package api

import (
	"database/sql/driver"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kotoba-lab/sensei/pkg/services"
	"github.com/kotoba-lab/sensei/pkg/tts"
)

// mapServiceError maps service-layer errors to HTTP error responses.
func (s *Server) mapServiceError(c *gin.Context, err error) {
	var validErr *services.ValidationError
	switch {
	case errors.As(err, &validErr):
		c.JSON(http.StatusBadRequest, gin.H{"detail": validErr.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "resource not found"})
	case errors.Is(err, services.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"detail": "resource already exists"})
	case errors.Is(err, tts.ErrEmptyText), errors.Is(err, tts.ErrTextTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.Is(err, tts.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": err.Error()})
	case isDatabaseUnavailable(err):
		s.logger.Error("database unavailable", "error", err, "path", c.FullPath())
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "database unavailable"})
	default:
		s.logger.Error("unexpected service error", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

func badRequest(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, gin.H{"detail": detail})
}

// isDatabaseUnavailable reports whether an error came from losing the
// database connection rather than from the query itself.
func isDatabaseUnavailable(err error) bool {
	var connectErr *pgconn.ConnectError
	var opErr *net.OpError
	return errors.Is(err, driver.ErrBadConn) ||
		errors.As(err, &connectErr) ||
		errors.As(err, &opErr)
}
