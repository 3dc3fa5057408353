package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
)

func TestDatabaseSetup(t *testing.T) {
	db := SetupTestDatabase(t)
	require.NotNil(t, db)

	author := CreateTestUser(t, db, "author")
	assert.NotZero(t, author.ID)

	salt := CreateTestIngredient(t, db, "salt", "g")
	water := CreateTestIngredient(t, db, "water", "ml")

	recipe := CreateTestRecipe(t, db, author, "soup", map[*models.Ingredient]int{salt: 5, water: 500})
	assert.NotZero(t, recipe.ID)
	assert.Len(t, recipe.ShortURL, models.ShortURLLength)
	assert.False(t, recipe.PubDate.IsZero())

	var loaded models.Recipe
	err := db.Preload("Author").Preload("RecipeIngredients.Ingredient").First(&loaded, recipe.ID).Error
	require.NoError(t, err)
	assert.Equal(t, "author", loaded.Author.Username)
	assert.Len(t, loaded.RecipeIngredients, 2)
}

func TestDatabaseEnforcesForeignKeys(t *testing.T) {
	db := SetupTestDatabase(t)

	err := db.Create(&models.Favorite{UserID: 999, RecipeID: 999}).Error
	assert.Error(t, err)
}
