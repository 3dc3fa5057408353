package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserHandler serves accounts, profiles and subscriptions
type UserHandler struct {
	users   service.IUserService
	baseURL string
}

func NewUserHandler(users service.IUserService, baseURL string) *UserHandler {
	return &UserHandler{users: users, baseURL: baseURL}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("/", h.ListUsers)
		users.POST("/", h.Register)
		users.GET("/:id/", h.GetUser)

		authed := users.Group("", middleware.RequireAuth())
		authed.GET("/me/", h.GetMe)
		authed.PATCH("/me/", h.UpdateMe)
		authed.PUT("/me/avatar/", h.SetAvatar)
		authed.DELETE("/me/avatar/", h.DeleteAvatar)
		authed.POST("/set_password/", h.SetPassword)
		authed.GET("/subscriptions/", h.ListSubscriptions)
		authed.POST("/:id/subscribe/", h.Subscribe)
		authed.DELETE("/:id/subscribe/", h.Unsubscribe)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}

	users, total, err := h.users.ListUsers(c.Request.Context(), middleware.CurrentUserID(c), page)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, h.baseURL, page, total, users)
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetMe(c *gin.Context) {
	me := middleware.CurrentUserID(c)
	user, err := h.users.GetUser(c.Request.Context(), me, me)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req types.UpdateMeRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.UpdateMe(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetAvatar(c *gin.Context) {
	var req types.SetAvatarRequest
	if !bindJSON(c, &req) {
		return
	}

	avatar, err := h.users.SetAvatar(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, avatar)
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	if err := h.users.DeleteAvatar(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.users.SetPassword(c.Request.Context(), middleware.CurrentUserID(c), &req); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) ListSubscriptions(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}

	subs, total, err := h.users.ListSubscriptions(c.Request.Context(), middleware.CurrentUserID(c), page, recipesLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, h.baseURL, page, total, subs)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, ok := parseID(c, "id")
	if !ok {
		return
	}

	sub, err := h.users.Subscribe(c.Request.Context(), middleware.CurrentUserID(c), authorID, recipesLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.users.Unsubscribe(c.Request.Context(), middleware.CurrentUserID(c), authorID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
