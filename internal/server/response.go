package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bank-limits/internal/models"
)

// writeError maps a service error to its HTTP status. Data-integrity and
// unknown errors are reported generically; their details belong in the log,
// not in a client response.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUpdateNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDataIntegrity):
		s.log.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("data integrity violation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		s.log.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
