package shops

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anoopems/chaikada/internal/app/domain"
	"github.com/anoopems/chaikada/internal/app/models"
)

type Handlers struct {
	logger  *zap.Logger
	service Service
}

func NewHandlers(service Service, logger *zap.Logger) *Handlers {
	return &Handlers{logger: logger, service: service}
}

// Create handles POST /api/v1/shops.
func (h *Handlers) Create(c *gin.Context) {
	var req models.CreateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		domain.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"shop_id": id})
}

// GetDetail handles GET /api/v1/shops/:id.
func (h *Handlers) GetDetail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		domain.RespondError(c, h.logger, fmt.Errorf("invalid shop id: %w", models.ErrValidation))
		return
	}

	detail, err := h.service.GetDetail(c.Request.Context(), id)
	if err != nil {
		domain.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
