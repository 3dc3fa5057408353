package service

import (
	"context"
	"time"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ObjectRemover deletes stored media, either inline or through the job queue.
type ObjectRemover interface {
	Remove(ctx context.Context, key string) error
}

// TokenRevoker blacklists token ids until they expire.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ShortLinkCache caches slug to recipe id lookups.
type ShortLinkCache interface {
	GetRecipeID(ctx context.Context, slug string) (uint, bool, error)
	SetRecipeID(ctx context.Context, slug string, recipeID uint) error
	DeleteRecipeID(ctx context.Context, slug string) error
}

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Login(ctx context.Context, req *types.LoginRequest) (string, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	GenerateToken(user *models.User) (string, error)
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// IUserService covers registration, profiles, avatars, passwords and subscriptions.
type IUserService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*types.UserCreatedResponse, error)
	ListUsers(ctx context.Context, viewerID uint, page types.PageQuery) ([]types.UserResponse, int64, error)
	GetUser(ctx context.Context, viewerID, userID uint) (*types.UserResponse, error)
	UpdateMe(ctx context.Context, userID uint, req *types.UpdateMeRequest) (*types.UserResponse, error)
	SetAvatar(ctx context.Context, userID uint, req *types.SetAvatarRequest) (*types.AvatarResponse, error)
	DeleteAvatar(ctx context.Context, userID uint) error
	SetPassword(ctx context.Context, userID uint, req *types.SetPasswordRequest) error
	Subscribe(ctx context.Context, userID, authorID uint, recipesLimit *int) (*types.SubscriptionResponse, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
	ListSubscriptions(ctx context.Context, userID uint, page types.PageQuery, recipesLimit *int) ([]types.SubscriptionResponse, int64, error)
}

// IIngredientService defines the read-only ingredient catalogue.
type IIngredientService interface {
	ListIngredients(ctx context.Context, namePrefix string) ([]types.IngredientResponse, error)
	GetIngredient(ctx context.Context, id uint) (*types.IngredientResponse, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	ListRecipes(ctx context.Context, viewerID uint, filter types.RecipeFilter, page types.PageQuery) ([]types.RecipeResponse, int64, error)
	GetRecipe(ctx context.Context, viewerID, id uint) (*types.RecipeResponse, error)
	CreateRecipe(ctx context.Context, authorID uint, req *types.RecipeRequest) (*types.RecipeResponse, error)
	UpdateRecipe(ctx context.Context, actorID, id uint, req *types.RecipeRequest, mode types.RecipeMode) (*types.RecipeResponse, error)
	DeleteRecipe(ctx context.Context, actorID, id uint) error

	AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeMinifiedResponse, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
	AddToShoppingCart(ctx context.Context, userID, recipeID uint) (*types.RecipeMinifiedResponse, error)
	RemoveFromShoppingCart(ctx context.Context, userID, recipeID uint) error
	ShoppingList(ctx context.Context, userID uint) ([]types.ShoppingListItem, error)

	ShortLinkSlug(ctx context.Context, id uint64) (string, error)
	ResolveShortLink(ctx context.Context, slug string) (uint, error)
}

var (
	_ IAuthService       = (*AuthService)(nil)
	_ IUserService       = (*UserService)(nil)
	_ IIngredientService = (*IngredientService)(nil)
	_ IRecipeService     = (*RecipeService)(nil)
)
