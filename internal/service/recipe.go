package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
)

// RecipeService handles recipe operations
type RecipeService struct {
	db      *gorm.DB
	store   storage.Storage
	remover ObjectRemover
	links   ShortLinkCache
	log     zerolog.Logger
}

// NewRecipeService creates a new RecipeService instance. links may be nil when
// no cache is configured.
func NewRecipeService(db *gorm.DB, store storage.Storage, remover ObjectRemover, links ShortLinkCache) *RecipeService {
	return &RecipeService{
		db:      db,
		store:   store,
		remover: remover,
		links:   links,
		log:     logger.Component("recipe_service"),
	}
}

// ListRecipes returns one page of recipes, newest first. The favorite and cart
// filters only apply when viewerID is set.
func (s *RecipeService) ListRecipes(ctx context.Context, viewerID uint, filter types.RecipeFilter, page types.PageQuery) ([]types.RecipeResponse, int64, error) {
	scope := s.filterScope(viewerID, filter)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := s.preloaded(ctx).
		Scopes(scope).
		Order("recipes.pub_date DESC, recipes.id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	result, err := s.present(ctx, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// GetRecipe retrieves a recipe by ID as seen by viewerID (0 for anonymous)
func (s *RecipeService) GetRecipe(ctx context.Context, viewerID, id uint) (*types.RecipeResponse, error) {
	var recipe models.Recipe
	err := s.preloaded(ctx).First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe %d: %w", id, err)
	}

	result, err := s.present(ctx, viewerID, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &result[0], nil
}

// CreateRecipe stores the image and creates the recipe with its ingredients in
// one transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uint, req *types.RecipeRequest) (*types.RecipeResponse, error) {
	if err := req.Validate(types.RecipeCreate); err != nil {
		return nil, err
	}
	if err := s.checkIngredients(ctx, req.Ingredients); err != nil {
		return nil, err
	}

	key, err := s.saveImage(ctx, *req.Image)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        *req.Name,
		Image:       key,
		Text:        *req.Text,
		CookingTime: *req.CookingTime,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return replaceIngredients(tx, recipe.ID, req.Ingredients)
	})
	if err != nil {
		discardMedia(ctx, s.store, s.log, key)
		return nil, err
	}

	s.log.Info().Uint("recipe_id", recipe.ID).Uint("author_id", authorID).Msg("recipe created")
	return s.GetRecipe(ctx, authorID, recipe.ID)
}

// UpdateRecipe changes a recipe owned by actorID. The ingredient set is always
// replaced, scalar fields follow mode. A new image replaces the old one only
// after the transaction commits.
func (s *RecipeService) UpdateRecipe(ctx context.Context, actorID, id uint, req *types.RecipeRequest, mode types.RecipeMode) (*types.RecipeResponse, error) {
	recipe, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if err := req.Validate(mode); err != nil {
		return nil, err
	}
	if err := s.checkIngredients(ctx, req.Ingredients); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Text != nil {
		updates["text"] = *req.Text
	}
	if req.CookingTime != nil {
		updates["cooking_time"] = *req.CookingTime
	}

	var newKey string
	if req.Image != nil {
		newKey, err = s.saveImage(ctx, *req.Image)
		if err != nil {
			return nil, err
		}
		updates["image"] = newKey
	}

	oldKey := recipe.Image
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(recipe).Omit(clause.Associations).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update recipe: %w", err)
			}
		}
		return replaceIngredients(tx, recipe.ID, req.Ingredients)
	})
	if err != nil {
		discardMedia(ctx, s.store, s.log, newKey)
		return nil, err
	}

	if newKey != "" {
		removeMedia(ctx, s.remover, s.log, oldKey)
	}
	return s.GetRecipe(ctx, actorID, recipe.ID)
}

// DeleteRecipe removes a recipe owned by actorID together with its links and image
func (s *RecipeService) DeleteRecipe(ctx context.Context, actorID, id uint) error {
	recipe, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Recipe{}, recipe.ID).Error; err != nil {
		return fmt.Errorf("failed to delete recipe %d: %w", id, err)
	}

	removeMedia(ctx, s.remover, s.log, recipe.Image)
	if s.links != nil && recipe.ShortURL != "" {
		if err := s.links.DeleteRecipeID(ctx, recipe.ShortURL); err != nil {
			s.log.Warn().Err(err).Str("slug", recipe.ShortURL).Msg("failed to evict short link")
		}
	}

	s.log.Info().Uint("recipe_id", id).Msg("recipe deleted")
	return nil
}

func (s *RecipeService) AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeMinifiedResponse, error) {
	return s.link(ctx, &models.Favorite{UserID: userID, RecipeID: recipeID}, ErrAlreadyFavorited)
}

func (s *RecipeService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.unlink(ctx, &models.Favorite{}, userID, recipeID, ErrNotFavorited)
}

func (s *RecipeService) AddToShoppingCart(ctx context.Context, userID, recipeID uint) (*types.RecipeMinifiedResponse, error) {
	return s.link(ctx, &models.ShoppingCart{UserID: userID, RecipeID: recipeID}, ErrAlreadyInCart)
}

func (s *RecipeService) RemoveFromShoppingCart(ctx context.Context, userID, recipeID uint) error {
	return s.unlink(ctx, &models.ShoppingCart{}, userID, recipeID, ErrNotInCart)
}

// ShoppingList sums ingredient amounts over every recipe in the cart of userID,
// grouped by name and unit and sorted by name.
func (s *RecipeService) ShoppingList(ctx context.Context, userID uint) ([]types.ShoppingListItem, error) {
	items := []types.ShoppingListItem{}
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build shopping list: %w", err)
	}
	return items, nil
}

// link inserts row for an existing recipe. A duplicate, whether caught by the
// pre-check or by the unique index, is reported as exists.
func (s *RecipeService) link(ctx context.Context, row interface{}, exists error) (*types.RecipeMinifiedResponse, error) {
	userID, recipeID := markKeys(row)

	recipe, err := s.loadRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	var count int64
	err = s.db.WithContext(ctx).Model(row).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check recipe mark: %w", err)
	}
	if count > 0 {
		return nil, exists
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, exists
		}
		return nil, fmt.Errorf("failed to mark recipe: %w", err)
	}

	minified := toRecipeMinified(s.store, recipe)
	return &minified, nil
}

// unlink deletes the row of model for userID and recipeID, reporting missing
// when there was none.
func (s *RecipeService) unlink(ctx context.Context, model interface{}, userID, recipeID uint, missing error) error {
	if _, err := s.loadRecipe(ctx, recipeID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(model)
	if result.Error != nil {
		return fmt.Errorf("failed to unmark recipe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return missing
	}
	return nil
}

func markKeys(row interface{}) (userID, recipeID uint) {
	switch r := row.(type) {
	case *models.Favorite:
		return r.UserID, r.RecipeID
	case *models.ShoppingCart:
		return r.UserID, r.RecipeID
	}
	return 0, 0
}

func (s *RecipeService) preloaded(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Author").
		Preload("RecipeIngredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_ingredients.id")
		}).
		Preload("RecipeIngredients.Ingredient")
}

func (s *RecipeService) filterScope(viewerID uint, filter types.RecipeFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.AuthorID != 0 {
			db = db.Where("recipes.author_id = ?", filter.AuthorID)
		}
		if viewerID == 0 {
			return db
		}
		if filter.IsFavorited {
			db = db.Where("recipes.id IN (?)",
				s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewerID))
		}
		if filter.IsInShoppingCart {
			db = db.Where("recipes.id IN (?)",
				s.db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", viewerID))
		}
		return db
	}
}

// present renders recipes with the per-viewer flags, loading them in bulk.
func (s *RecipeService) present(ctx context.Context, viewerID uint, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for i := range recipes {
		recipeIDs[i] = recipes[i].ID
		authorIDs = append(authorIDs, recipes[i].AuthorID)
	}

	favorited, err := markedRecipes(ctx, s.db, &models.Favorite{}, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := markedRecipes(ctx, s.db, &models.ShoppingCart{}, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	followed, err := followedAuthors(ctx, s.db, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	result := make([]types.RecipeResponse, 0, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		author := toUserResponse(s.store, &r.Author, followed[r.AuthorID])
		result = append(result, toRecipeResponse(s.store, r, author, favorited[r.ID], inCart[r.ID]))
	}
	return result, nil
}

// checkIngredients reports ingredient ids that do not exist.
func (s *RecipeService) checkIngredients(ctx context.Context, items []types.IngredientAmount) error {
	ids := make([]uint, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	var existing []uint
	err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &existing).Error
	if err != nil {
		return fmt.Errorf("failed to check ingredients: %w", err)
	}
	if len(existing) == len(ids) {
		return nil
	}

	found := make(map[uint]bool, len(existing))
	for _, id := range existing {
		found[id] = true
	}
	var missing []uint
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })

	verrs := types.ValidationErrors{}
	for _, id := range missing {
		verrs.Add("ingredients", fmt.Sprintf("ingredient %d does not exist", id))
	}
	return verrs
}

// replaceIngredients swaps the ingredient set of a recipe inside tx.
func replaceIngredients(tx *gorm.DB, recipeID uint, items []types.IngredientAmount) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}

	rows := make([]models.RecipeIngredient, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		})
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to save recipe ingredients: %w", err)
	}
	return nil
}

func (s *RecipeService) loadRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe %d: %w", id, err)
	}
	return &recipe, nil
}

// loadOwned loads a recipe that actorID may modify.
func (s *RecipeService) loadOwned(ctx context.Context, actorID, id uint) (*models.Recipe, error) {
	recipe, err := s.loadRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != actorID {
		return nil, ErrForbidden
	}
	return recipe, nil
}

func (s *RecipeService) saveImage(ctx context.Context, dataURI string) (string, error) {
	img, err := storage.DecodeDataURI(dataURI)
	if err != nil {
		return "", types.FieldError("image", err.Error())
	}

	key := storage.RecipeImageKey(img)
	if err := s.store.Save(ctx, key, img.Data, img.ContentType); err != nil {
		return "", fmt.Errorf("failed to store recipe image: %w", err)
	}
	return key, nil
}
