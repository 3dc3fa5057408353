package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"gorm.io/gorm"
)

const (
	MinAmount      = 1
	MaxAmount      = 32000
	MinCookingTime = 1
	MaxCookingTime = 32000

	ShortURLLength   = 8
	shortURLAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type Ingredient struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"size:200;not null;uniqueIndex:idx_ingredients_name_unit" json:"name"`
	MeasurementUnit string `gorm:"size:50;not null;uniqueIndex:idx_ingredients_name_unit" json:"measurement_unit"`
}

type Recipe struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	AuthorID          uint               `gorm:"not null;index" json:"author_id"`
	Author            User               `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Name              string             `gorm:"size:200;not null" json:"name"`
	Image             string             `gorm:"size:255;not null" json:"image"`
	Text              string             `gorm:"type:text;not null" json:"text"`
	CookingTime       int                `gorm:"not null;check:cooking_time >= 1 AND cooking_time <= 32000" json:"cooking_time"`
	PubDate           time.Time          `gorm:"not null;index" json:"pub_date"`
	ShortURL          string             `gorm:"size:8;not null;uniqueIndex" json:"short_url"`
	RecipeIngredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients"`
}

// BeforeCreate stamps the publication date and assigns a short link slug.
// An existing slug is never recomputed.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.PubDate.IsZero() {
		r.PubDate = time.Now().UTC()
	}
	if r.ShortURL == "" {
		slug, err := NewShortURL()
		if err != nil {
			return err
		}
		r.ShortURL = slug
	}
	return nil
}

// NewShortURL returns a random slug of ShortURLLength ASCII letters and digits.
func NewShortURL() (string, error) {
	buf := make([]byte, ShortURLLength)
	max := big.NewInt(int64(len(shortURLAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate short url: %w", err)
		}
		buf[i] = shortURLAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// RecipeIngredient is the amount of one ingredient used by a recipe.
type RecipeIngredient struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredients_pair" json:"recipe_id"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredients_pair;index" json:"ingredient_id"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE" json:"ingredient"`
	Amount       int        `gorm:"not null;check:amount >= 1 AND amount <= 32000" json:"amount"`
}

type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorites_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorites_user_recipe;index" json:"recipe_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipe    Recipe    `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

type ShoppingCart struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_shopping_carts_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_shopping_carts_user_recipe;index" json:"recipe_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipe    Recipe    `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ShoppingCart) TableName() string {
	return "shopping_carts"
}

// All lists every model in dependency order for migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Follow{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingCart{},
	}
}
