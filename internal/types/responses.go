package types

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID           uint    `json:"id"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Email        string  `json:"email"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

// UserCreatedResponse is returned by registration.
type UserCreatedResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// SubscriptionResponse is a followed author with a preview of their recipes.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeMinifiedResponse `json:"recipes"`
	RecipesCount int64                    `json:"recipes_count"`
}

type AvatarResponse struct {
	Avatar string `json:"avatar"`
}

type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

type IngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type RecipeIngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeResponse is the full representation of a recipe as seen by one viewer.
type RecipeResponse struct {
	ID               uint                       `json:"id"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// RecipeMinifiedResponse is used in favorites, the cart and subscriptions.
type RecipeMinifiedResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type ShortLinkResponse struct {
	ShortLink string `json:"short-link"`
}

// ShoppingListItem is one aggregated line of the shopping list.
type ShoppingListItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Total           int64  `json:"total"`
}

// Page is a page-number paginated list.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
