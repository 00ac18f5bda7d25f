package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/IgnacioAroza/reservation-api/internal/config"
	"github.com/IgnacioAroza/reservation-api/internal/domain"
	"github.com/IgnacioAroza/reservation-api/internal/http/handler"
	httpmiddleware "github.com/IgnacioAroza/reservation-api/internal/http/middleware"
	"github.com/IgnacioAroza/reservation-api/internal/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth      *handler.AuthHandler
	Companies *handler.CompanyHandler
	Users     *handler.UserHandler
	Health    *handler.HealthHandler
}

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, logger *zap.Logger, h Handlers, authMiddleware *httpmiddleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	handler.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(logger, "/healthz"))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	if h.Health != nil {
		r.GET("/healthz", h.Health.Health)
	}

	authenticated := authMiddleware.ValidateJWT
	adminOnly := httpmiddleware.RequireRoles(domain.RoleAdmin)

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.GET("/me", authenticated, h.Auth.Me)
	}

	companies := r.Group("/companies")
	{
		companies.POST("", h.Companies.Create)
		companies.GET("", authenticated, adminOnly, h.Companies.List)
		companies.GET("/slug/:slug", authenticated, h.Companies.GetBySlug)
		companies.GET("/:id", authenticated, h.Companies.Get)
		companies.PATCH("/:id", authenticated, adminOnly, h.Companies.Update)
		companies.DELETE("/:id", authenticated, adminOnly, h.Companies.Remove)
	}

	users := r.Group("/users", authenticated)
	{
		users.POST("", adminOnly, h.Users.Create)
		users.GET("", h.Users.List)
		users.GET("/:id", h.Users.Get)
		users.PATCH("/:id", adminOnly, h.Users.Update)
		users.PATCH("/:id/password", h.Users.UpdatePassword)
		users.DELETE("/:id", adminOnly, h.Users.Remove)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success":           false,
			"error":             string(domain.KindNotFound),
			"error_description": "Route not found.",
		})
	})

	return r
}
