package testhelpers

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// TestPassword is the plain text password of every user made by CreateTestUser.
const TestPassword = "s3cret-Passw0rd"

// CreateTestUser inserts a user named username with TestPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// CreateTestIngredient inserts an ingredient.
func CreateTestIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()

	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ingredient).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return ingredient
}

// CreateTestRecipe inserts a recipe owned by author using the given ingredient amounts.
func CreateTestRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, amounts map[*models.Ingredient]int) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       "recipes/images/" + name + ".png",
		Text:        "Mix everything.",
		CookingTime: 10,
	}
	for ingredient, amount := range amounts {
		recipe.RecipeIngredients = append(recipe.RecipeIngredients, models.RecipeIngredient{
			IngredientID: ingredient.ID,
			Amount:       amount,
		})
	}
	if err := db.Omit("Author").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	return recipe
}

// PNGDataURI returns a small valid PNG encoded as a data URI with the given MIME type.
func PNGDataURI(t *testing.T, mime string) string {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return dataURI(mime, buf.Bytes())
}

// JPEGDataURI returns a small valid JPEG encoded as a data URI.
func JPEGDataURI(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(), nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	return dataURI("image/jpeg", buf.Bytes())
}

func dataURI(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	return img
}
