package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/anoopems/chaikada/internal/app/domain/auth"
	"github.com/anoopems/chaikada/internal/app/domain/contributions"
	"github.com/anoopems/chaikada/internal/app/domain/routing"
	"github.com/anoopems/chaikada/internal/app/domain/search"
	"github.com/anoopems/chaikada/internal/app/domain/shops"
	"github.com/anoopems/chaikada/internal/app/middleware"
	"github.com/anoopems/chaikada/internal/pkg/config"
)

type AppHandlers struct {
	Auth          *auth.Handlers
	Shops         *shops.Handlers
	Search        *search.Handlers
	Contributions *contributions.Handlers
}

// Setup wires repositories, services and handlers onto the router.
func Setup(r *gin.Engine, dbPool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) {
	shopRepo := shops.NewRepository(dbPool, logger)
	ledgerRepo := contributions.NewRepository(dbPool, logger)
	authRepo := auth.NewPostgresRepo(dbPool, logger)

	ledgerService := contributions.NewService(ledgerRepo, logger)
	shopService := shops.NewService(shopRepo, ledgerService, logger)
	authService := auth.NewService(authRepo, cfg.Auth, logger)
	enricher := routing.NewOSRMClient(cfg.Routing, logger)
	searchService := search.NewService(shopRepo, enricher, logger)

	h := AppHandlers{
		Auth:          auth.NewHandlers(authService, logger),
		Shops:         shops.NewHandlers(shopService, logger),
		Search:        search.NewHandlers(searchService, logger),
		Contributions: contributions.NewHandlers(ledgerService, logger),
	}

	r.GET("/health", func(c *gin.Context) {
		if err := dbPool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.OptionalAuth(authService))

	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)

	api.GET("/shops/search", h.Search.Search)
	api.POST("/shops", h.Shops.Create)
	api.GET("/shops/:id", h.Shops.GetDetail)
	api.POST("/shops/:id/metadata", h.Contributions.AddMetadata)
	api.POST("/shops/:id/reviews", h.Contributions.AddReview)
}
