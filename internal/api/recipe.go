package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type RecipeHandler struct {
	recipes service.IRecipeService
	users   service.IUserService
	limiter *middleware.RateLimiter
	baseURL string
}

// NewRecipeHandler creates the recipe handler. limiter may be nil.
func NewRecipeHandler(recipes service.IRecipeService, users service.IUserService, limiter *middleware.RateLimiter, baseURL string) *RecipeHandler {
	return &RecipeHandler{
		recipes: recipes,
		users:   users,
		limiter: limiter,
		baseURL: baseURL,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes", middleware.AuthenticatedOrReadOnly())
	{
		recipes.GET("/", h.ListRecipes)
		recipes.POST("/", h.limiter.Middleware(), h.CreateRecipe)
		recipes.GET("/download_shopping_cart/", middleware.RequireAuth(), h.DownloadShoppingCart)
		recipes.GET("/:id/", h.GetRecipe)
		recipes.PUT("/:id/", h.ReplaceRecipe)
		recipes.PATCH("/:id/", h.PatchRecipe)
		recipes.DELETE("/:id/", h.DeleteRecipe)
		recipes.GET("/:id/get-link/", h.GetLink)
		recipes.POST("/:id/favorite/", h.AddFavorite)
		recipes.DELETE("/:id/favorite/", h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart/", h.AddToShoppingCart)
		recipes.DELETE("/:id/shopping_cart/", h.RemoveFromShoppingCart)
	}
}

// ListRecipes supports ?author=, ?is_favorited=1 and ?is_in_shopping_cart=1
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}

	filter := types.RecipeFilter{
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}
	if raw := c.Query("author"); raw != "" {
		authorID, err := strconv.ParseUint(raw, 10, 0)
		if err != nil {
			writeError(c, types.FieldError("author", "Select a valid choice."))
			return
		}
		filter.AuthorID = uint(authorID)
	}

	recipes, total, err := h.recipes.ListRecipes(c.Request.Context(), middleware.CurrentUserID(c), filter, page)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, h.baseURL, page, total, recipes)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) ReplaceRecipe(c *gin.Context) {
	h.updateRecipe(c, types.RecipeReplace)
}

func (h *RecipeHandler) PatchRecipe(c *gin.Context) {
	h.updateRecipe(c, types.RecipePatch)
}

func (h *RecipeHandler) updateRecipe(c *gin.Context, mode types.RecipeMode) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), middleware.CurrentUserID(c), id, &req, mode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.recipes.DeleteRecipe(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.mark(c, h.recipes.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.unmark(c, h.recipes.RemoveFavorite)
}

func (h *RecipeHandler) AddToShoppingCart(c *gin.Context) {
	h.mark(c, h.recipes.AddToShoppingCart)
}

func (h *RecipeHandler) RemoveFromShoppingCart(c *gin.Context) {
	h.unmark(c, h.recipes.RemoveFromShoppingCart)
}

func (h *RecipeHandler) mark(c *gin.Context, add func(context.Context, uint, uint) (*types.RecipeMinifiedResponse, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	recipe, err := add(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) unmark(c *gin.Context, remove func(context.Context, uint, uint) error) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := remove(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart sends the aggregated shopping list as text, or as a
// spreadsheet with ?format=xlsx.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	ctx := c.Request.Context()
	me := middleware.CurrentUserID(c)

	user, err := h.users.GetUser(ctx, me, me)
	if err != nil {
		writeError(c, err)
		return
	}
	items, err := h.recipes.ShoppingList(ctx, me)
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("format") == "xlsx" {
		data, err := service.RenderShoppingListXLSX(user.Username, items)
		if err != nil {
			writeError(c, err)
			return
		}
		attachment(c, service.ShoppingListXLSXName, contentTypeXLSX, data)
		return
	}
	attachment(c, service.ShoppingListTextName, contentTypeText, service.RenderShoppingListText(user.Username, items))
}

// GetLink returns the short link of a recipe. Unknown numeric ids still get one.
func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		detail(c, http.StatusNotFound, "Not found.")
		return
	}

	slug, err := h.recipes.ShortLinkSlug(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ShortLinkResponse{ShortLink: fmt.Sprintf("%s/s/%s/", h.baseURL, slug)})
}

// ResolveShortLink redirects /s/<slug>/ to the recipe page.
func (h *RecipeHandler) ResolveShortLink(c *gin.Context) {
	id, err := h.recipes.ResolveShortLink(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/recipes/%d/", h.baseURL, id))
}

func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, data)
}

func queryFlag(c *gin.Context, name string) bool {
	switch c.Query(name) {
	case "1", "true", "True":
		return true
	}
	return false
}
