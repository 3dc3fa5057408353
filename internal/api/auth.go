package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// AuthHandler issues and revokes tokens
type AuthHandler struct {
	auth service.IAuthService
}

func NewAuthHandler(auth service.IAuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	tokens := router.Group("/auth/token")
	{
		tokens.POST("/login/", h.Login)
		tokens.POST("/logout/", middleware.RequireAuth(), h.Logout)
	}
}

// Login exchanges email and password for a token
func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, err)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.TokenResponse{AuthToken: token})
}

// Logout revokes the presented token
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.CurrentClaims(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
