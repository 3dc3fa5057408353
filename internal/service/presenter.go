package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
)

func mediaURL(store storage.Storage, key string) string {
	if key == "" || store == nil {
		return ""
	}
	return store.URL(key)
}

func toUserResponse(store storage.Storage, user *models.User, subscribed bool) types.UserResponse {
	resp := types.UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		IsSubscribed: subscribed,
	}
	if user.Avatar != "" {
		url := mediaURL(store, user.Avatar)
		resp.Avatar = &url
	}
	return resp
}

func toRecipeMinified(store storage.Storage, recipe *models.Recipe) types.RecipeMinifiedResponse {
	return types.RecipeMinifiedResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       mediaURL(store, recipe.Image),
		CookingTime: recipe.CookingTime,
	}
}

func toRecipeResponse(store storage.Storage, recipe *models.Recipe, author types.UserResponse, favorited, inCart bool) types.RecipeResponse {
	ingredients := make([]types.RecipeIngredientResponse, 0, len(recipe.RecipeIngredients))
	for _, ri := range recipe.RecipeIngredients {
		ingredients = append(ingredients, types.RecipeIngredientResponse{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}

	return types.RecipeResponse{
		ID:               recipe.ID,
		Author:           author,
		Ingredients:      ingredients,
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		Name:             recipe.Name,
		Image:            mediaURL(store, recipe.Image),
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}
}

// followedAuthors returns which of authorIDs the viewer follows.
func followedAuthors(ctx context.Context, db *gorm.DB, viewerID uint, authorIDs []uint) (map[uint]bool, error) {
	followed := make(map[uint]bool)
	if viewerID == 0 || len(authorIDs) == 0 {
		return followed, nil
	}

	var ids []uint
	err := db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id IN ?", viewerID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	for _, id := range ids {
		followed[id] = true
	}
	return followed, nil
}

// markedRecipes returns which of recipeIDs the viewer has a row for in the
// favorites or shopping cart table given by model.
func markedRecipes(ctx context.Context, db *gorm.DB, model interface{}, viewerID uint, recipeIDs []uint) (map[uint]bool, error) {
	marked := make(map[uint]bool)
	if viewerID == 0 || len(recipeIDs) == 0 {
		return marked, nil
	}

	var ids []uint
	err := db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", viewerID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe marks: %w", err)
	}
	for _, id := range ids {
		marked[id] = true
	}
	return marked, nil
}
