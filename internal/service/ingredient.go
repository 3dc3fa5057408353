package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IngredientService serves the read-only ingredient catalogue
type IngredientService struct {
	db *gorm.DB
}

func NewIngredientService(db *gorm.DB) *IngredientService {
	return &IngredientService{db: db}
}

// ListIngredients returns every ingredient whose name starts with namePrefix,
// ignoring case, ordered by name.
func (s *IngredientService) ListIngredients(ctx context.Context, namePrefix string) ([]types.IngredientResponse, error) {
	prefix := strings.ToLower(namePrefix)
	// SQLite's LOWER only folds ASCII, so non-ASCII prefixes are matched here.
	foldInGo := s.db.Dialector.Name() == "sqlite" && !isASCII(prefix)

	query := s.db.WithContext(ctx).Order("name, id")
	if prefix != "" && !foldInGo {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	if foldInGo {
		ingredients = filterByPrefix(ingredients, prefix)
	}

	result := make([]types.IngredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		result = append(result, toIngredientResponse(&ingredient))
	}
	return result, nil
}

func (s *IngredientService) GetIngredient(ctx context.Context, id uint) (*types.IngredientResponse, error) {
	var ingredient models.Ingredient
	err := s.db.WithContext(ctx).First(&ingredient, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ingredient %d: %w", id, err)
	}

	resp := toIngredientResponse(&ingredient)
	return &resp, nil
}

func toIngredientResponse(ingredient *models.Ingredient) types.IngredientResponse {
	return types.IngredientResponse{
		ID:              ingredient.ID,
		Name:            ingredient.Name,
		MeasurementUnit: ingredient.MeasurementUnit,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func filterByPrefix(ingredients []models.Ingredient, lowerPrefix string) []models.Ingredient {
	matched := ingredients[:0]
	for _, ingredient := range ingredients {
		if strings.HasPrefix(strings.ToLower(ingredient.Name), lowerPrefix) {
			matched = append(matched, ingredient)
		}
	}
	return matched
}
