package search

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
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

// Search handles GET /api/v1/shops/search. Zero results is a 200 with an
// empty list; pipeline failures come back as errors, never as partial
// results.
func (h *Handlers) Search(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		domain.RespondError(c, h.logger, fmt.Errorf("lat is required and must be a number: %w", models.ErrValidation))
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		domain.RespondError(c, h.logger, fmt.Errorf("lon is required and must be a number: %w", models.ErrValidation))
		return
	}

	req := models.SearchRequest{Latitude: lat, Longitude: lon}

	if v := c.Query("max_distance_km"); v != "" {
		km, err := strconv.ParseFloat(v, 64)
		if err != nil {
			domain.RespondError(c, h.logger, fmt.Errorf("max_distance_km must be a number: %w", models.ErrValidation))
			return
		}
		req.MaxDistanceKm = &km
	}
	if v := c.Query("max_walking_time_min"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			domain.RespondError(c, h.logger, fmt.Errorf("max_walking_time_min must be an integer: %w", models.ErrValidation))
			return
		}
		req.MaxWalkingTimeMin = &minutes
	}

	results, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		domain.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
