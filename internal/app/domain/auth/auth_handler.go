package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anoopems/chaikada/internal/app/domain"
)

type Handlers struct {
	logger  *zap.Logger
	service Service
}

func NewHandlers(service Service, logger *zap.Logger) *Handlers {
	return &Handlers{logger: logger, service: service}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := h.service.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		domain.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_id": userID})
}

func (h *Handlers) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		domain.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
