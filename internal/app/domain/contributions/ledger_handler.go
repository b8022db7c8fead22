package contributions

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anoopems/chaikada/internal/app/domain"
	"github.com/anoopems/chaikada/internal/app/middleware"
	"github.com/anoopems/chaikada/internal/app/models"
	"github.com/anoopems/chaikada/internal/observability/metrics"
)

type Handlers struct {
	logger  *zap.Logger
	service Service
}

func NewHandlers(service Service, logger *zap.Logger) *Handlers {
	return &Handlers{logger: logger, service: service}
}

// AddMetadata handles POST /api/v1/shops/:id/metadata.
func (h *Handlers) AddMetadata(c *gin.Context) {
	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		domain.RespondError(c, h.logger, fmt.Errorf("invalid shop id: %w", models.ErrValidation))
		return
	}

	var req models.AddMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.service.AddMetadata(c.Request.Context(), shopID, req)
	if err != nil {
		domain.RespondError(c, h.logger, err)
		return
	}
	if m := metrics.Get(); m != nil {
		m.ContributionsTotal.Add(c.Request.Context(), 1)
	}
	c.JSON(http.StatusCreated, gin.H{"contribution_id": id})
}

// AddReview handles POST /api/v1/shops/:id/reviews. When the caller is
// authenticated the review is attributed to their user id.
func (h *Handlers) AddReview(c *gin.Context) {
	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		domain.RespondError(c, h.logger, fmt.Errorf("invalid shop id: %w", models.ErrValidation))
		return
	}

	var req models.AddReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID *uuid.UUID
	if id, ok := middleware.UserIDFromContext(c); ok {
		userID = &id
	}

	id, err := h.service.AddReview(c.Request.Context(), shopID, req, userID)
	if err != nil {
		domain.RespondError(c, h.logger, err)
		return
	}
	if m := metrics.Get(); m != nil {
		m.ContributionsTotal.Add(c.Request.Context(), 1)
	}
	c.JSON(http.StatusCreated, gin.H{"review_id": id})
}
