package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func newAuthRouter(validator TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Authenticate(validator))

	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": CurrentUserID(c)})
	})
	router.GET("/private", RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	guarded := router.Group("/items", AuthenticatedOrReadOnly())
	guarded.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
	guarded.POST("", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return router
}

func request(router http.Handler, method, path, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	validator := new(testhelpers.MockAuthService)
	validator.On("ValidateToken", mock.Anything, "good").Return(&types.TokenClaims{UserID: 7, Username: "cook"}, nil)
	validator.On("ValidateToken", mock.Anything, "bad").Return(nil, errors.New("invalid token"))
	router := newAuthRouter(validator)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"anonymous", "", http.StatusOK, `{"user_id":0}`},
		{"token scheme", "Token good", http.StatusOK, `{"user_id":7}`},
		{"bearer scheme", "Bearer good", http.StatusOK, `{"user_id":7}`},
		{"invalid token", "Token bad", http.StatusUnauthorized, `{"detail":"Invalid token."}`},
		{"unknown scheme", "Basic good", http.StatusUnauthorized, `{"detail":"Invalid token header."}`},
		{"missing token", "Token", http.StatusUnauthorized, `{"detail":"Invalid token header."}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(router, http.MethodGet, "/whoami", tt.header)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
	validator.AssertExpectations(t)
}

func TestRequireAuth(t *testing.T) {
	router := newAuthRouter(&testhelpers.MockTokenValidator{Claims: &types.TokenClaims{UserID: 1}})

	w := request(router, http.MethodGet, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Authentication credentials were not provided."}`, w.Body.String())

	w = request(router, http.MethodGet, "/private", "Token anything")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthenticatedOrReadOnly(t *testing.T) {
	router := newAuthRouter(&testhelpers.MockTokenValidator{Claims: &types.TokenClaims{UserID: 1}})

	assert.Equal(t, http.StatusOK, request(router, http.MethodGet, "/items", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(router, http.MethodPost, "/items", "").Code)
	assert.Equal(t, http.StatusCreated, request(router, http.MethodPost, "/items", "Token anything").Code)
}
