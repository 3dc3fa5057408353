package types

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

const (
	minAmount      = 1
	maxAmount      = 32000
	minCookingTime = 1
	maxCookingTime = 32000
)

func usernameRules() []validation.Rule {
	return []validation.Rule{
		validation.RuneLength(1, 150),
		validation.Match(usernamePattern).Error("may contain only letters, digits and @/./+/-/_"),
	}
}

// RegisterRequest is the body of POST /api/users/.
type RegisterRequest struct {
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Password  string  `json:"password"`
	Avatar    *string `json:"avatar"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.RuneLength(1, 254), is.EmailFormat),
		validation.Field(&r.Username, append([]validation.Rule{validation.Required}, usernameRules()...)...),
		validation.Field(&r.FirstName, validation.Required, validation.RuneLength(1, 150)),
		validation.Field(&r.LastName, validation.Required, validation.RuneLength(1, 150)),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(8, 128)),
	)
}

// LoginRequest is the body of POST /api/auth/token/login/.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// UpdateMeRequest is the body of PATCH /api/users/me/. Omitted fields keep their value.
type UpdateMeRequest struct {
	Email     *string `json:"email"`
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (r UpdateMeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.RuneLength(1, 254), is.EmailFormat),
		validation.Field(&r.Username, append([]validation.Rule{validation.NilOrNotEmpty}, usernameRules()...)...),
		validation.Field(&r.FirstName, validation.NilOrNotEmpty, validation.RuneLength(1, 150)),
		validation.Field(&r.LastName, validation.NilOrNotEmpty, validation.RuneLength(1, 150)),
	)
}

// SetAvatarRequest is the body of PUT /api/users/me/avatar/.
type SetAvatarRequest struct {
	Avatar string `json:"avatar"`
}

func (r SetAvatarRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Avatar, validation.Required),
	)
}

// SetPasswordRequest is the body of POST /api/users/set_password/.
type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r SetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.RuneLength(8, 128)),
	)
}

// IngredientAmount references an existing ingredient inside a recipe request.
type IngredientAmount struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

func (a IngredientAmount) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ID, validation.Required),
		validation.Field(&a.Amount,
			validation.Required,
			validation.Min(minAmount),
			validation.Max(maxAmount),
		),
	)
}

// RecipeRequest is the body of POST, PUT and PATCH /api/recipes/.
// Image is a base64 data URI.
type RecipeRequest struct {
	Ingredients []IngredientAmount `json:"ingredients"`
	Image       *string            `json:"image"`
	Name        *string            `json:"name"`
	Text        *string            `json:"text"`
	CookingTime *int               `json:"cooking_time"`
}

// RecipeMode selects which fields are mandatory.
type RecipeMode int

const (
	// RecipeCreate requires every field.
	RecipeCreate RecipeMode = iota
	// RecipeReplace (PUT) requires every field except image.
	RecipeReplace
	// RecipePatch requires only ingredients.
	RecipePatch
)

// Validate checks r for the given mode. Ingredient existence is checked by the
// service because it needs the database.
func (r RecipeRequest) Validate(mode RecipeMode) error {
	presence := validation.Required
	if mode == RecipePatch {
		presence = validation.NilOrNotEmpty
	}
	imagePresence := validation.NilOrNotEmpty
	if mode == RecipeCreate {
		imagePresence = validation.Required
	}

	return validation.ValidateStruct(&r,
		validation.Field(&r.Ingredients,
			validation.Required.Error("at least one ingredient is required"),
			validation.By(uniqueIngredients),
		),
		validation.Field(&r.Image, imagePresence),
		validation.Field(&r.Name, presence, validation.RuneLength(1, 200)),
		validation.Field(&r.Text, presence),
		validation.Field(&r.CookingTime,
			presence,
			validation.Min(minCookingTime),
			validation.Max(maxCookingTime),
		),
	)
}

func uniqueIngredients(value interface{}) error {
	items, ok := value.([]IngredientAmount)
	if !ok {
		return errors.New("must be a list of ingredients")
	}
	seen := make(map[uint]bool, len(items))
	for _, item := range items {
		if seen[item.ID] {
			return fmt.Errorf("ingredient %d is listed more than once", item.ID)
		}
		seen[item.ID] = true
	}
	return nil
}

// RecipeFilter holds the query filters of GET /api/recipes/.
type RecipeFilter struct {
	AuthorID         uint
	IsFavorited      bool
	IsInShoppingCart bool
}

// PageQuery is a 1-based page request.
type PageQuery struct {
	Page  int
	Limit int
}

// Offset is the number of rows skipped before the page.
func (p PageQuery) Offset() int {
	return (p.Page - 1) * p.Limit
}
