package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Dependencies are the services behind the HTTP API.
type Dependencies struct {
	Auth        service.IAuthService
	Users       service.IUserService
	Recipes     service.IRecipeService
	Ingredients service.IIngredientService

	// DB is pinged by the health endpoints when set.
	DB *gorm.DB
	// RecipeCreationLimiter may be nil, which disables the limit.
	RecipeCreationLimiter *middleware.RateLimiter
	// BaseURL is the public origin used for absolute links, without a trailing slash.
	BaseURL string
}

// HealthCheck returns the health status of the API. It reports 503 when db
// is set and does not answer a ping.
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := database.HealthCheck(c.Request.Context(), db); err != nil {
				log.Error().Err(err).Msg("database health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	baseURL := strings.TrimSuffix(deps.BaseURL, "/")

	health := HealthCheck(deps.DB)
	router.GET("/health", health)
	router.GET("/api/health", health)

	api := router.Group("/api")
	api.Use(middleware.Authenticate(deps.Auth))

	NewAuthHandler(deps.Auth).RegisterRoutes(api)
	NewUserHandler(deps.Users, baseURL).RegisterRoutes(api)
	NewIngredientHandler(deps.Ingredients).RegisterRoutes(api)

	recipeHandler := NewRecipeHandler(deps.Recipes, deps.Users, deps.RecipeCreationLimiter, baseURL)
	recipeHandler.RegisterRoutes(api)
	router.GET("/s/:slug/", recipeHandler.ResolveShortLink)
}
