package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func newLimitedRouter(limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Authenticate(&testhelpers.MockTokenValidator{Claims: &types.TokenClaims{UserID: 3}}))
	router.POST("/recipes", limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return router
}

func TestRateLimiterDisabledWithoutRedis(t *testing.T) {
	limiter := NewRecipeCreationRateLimiter(nil, 1)
	assert.Nil(t, limiter)

	router := newLimitedRouter(limiter)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusCreated, request(router, http.MethodPost, "/recipes", "Token x").Code)
	}
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	rc := testhelpers.SetupRedis(t)
	router := newLimitedRouter(NewRecipeCreationRateLimiter(rc.Client, 2))

	first := request(router, http.MethodPost, "/recipes", "Token x")
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusCreated, request(router, http.MethodPost, "/recipes", "Token x").Code)

	blocked := request(router, http.MethodPost, "/recipes", "Token x")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Contains(t, blocked.Body.String(), "Request was throttled")
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
}
