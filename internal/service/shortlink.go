package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// ShortLinkSlug returns the short link slug of recipe id. Unknown ids still get
// a slug, the base36 form of the id, so the endpoint never fails for them.
func (s *RecipeService) ShortLinkSlug(ctx context.Context, id uint64) (string, error) {
	if id == 0 || id > math.MaxInt64 {
		return base36(id), nil
	}

	var recipe models.Recipe
	err := s.db.WithContext(ctx).Select("id", "short_url").First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return base36(id), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load recipe %d: %w", id, err)
	}
	if recipe.ShortURL == "" {
		return base36(id), nil
	}
	return recipe.ShortURL, nil
}

// ResolveShortLink returns the recipe id behind slug, consulting the cache first.
func (s *RecipeService) ResolveShortLink(ctx context.Context, slug string) (uint, error) {
	if slug == "" || len(slug) > models.ShortURLLength {
		return 0, ErrNotFound
	}

	if s.links != nil {
		id, ok, err := s.links.GetRecipeID(ctx, slug)
		if err != nil {
			s.log.Warn().Err(err).Str("slug", slug).Msg("short link cache read failed")
		} else if ok {
			return id, nil
		}
	}

	var recipe models.Recipe
	err := s.db.WithContext(ctx).Select("id").Where("short_url = ?", slug).First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve short link: %w", err)
	}

	if s.links != nil {
		if err := s.links.SetRecipeID(ctx, slug, recipe.ID); err != nil {
			s.log.Warn().Err(err).Str("slug", slug).Msg("short link cache write failed")
		}
	}
	return recipe.ID, nil
}

func base36(id uint64) string {
	return strconv.FormatUint(id, 36)
}
