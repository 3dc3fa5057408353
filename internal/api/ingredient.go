package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
)

// IngredientHandler serves the public ingredient catalogue
type IngredientHandler struct {
	ingredients service.IIngredientService
}

func NewIngredientHandler(ingredients service.IIngredientService) *IngredientHandler {
	return &IngredientHandler{ingredients: ingredients}
}

func (h *IngredientHandler) RegisterRoutes(router *gin.RouterGroup) {
	ingredients := router.Group("/ingredients")
	{
		ingredients.GET("/", h.ListIngredients)
		ingredients.GET("/:id/", h.GetIngredient)
	}
}

// ListIngredients filters by ?name= prefix and is not paginated
func (h *IngredientHandler) ListIngredients(c *gin.Context) {
	list, err := h.ingredients.ListIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *IngredientHandler) GetIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ingredient, err := h.ingredients.GetIngredient(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredient)
}
