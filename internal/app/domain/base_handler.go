package domain

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anoopems/chaikada/internal/app/models"
)

// RespondError maps a domain error onto an HTTP status and writes the
// standard error body. A failed request is always distinguishable from an
// empty, successful one.
func RespondError(c *gin.Context, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, models.ErrConstraint):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrService):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		logger.Error("Unhandled request error", zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
