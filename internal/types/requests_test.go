package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func validRecipe() RecipeRequest {
	return RecipeRequest{
		Ingredients: []IngredientAmount{{ID: 1, Amount: 10}, {ID: 2, Amount: 5}},
		Image:       ptr("data:image/png;base64,AAAA"),
		Name:        ptr("Soup"),
		Text:        ptr("Boil water."),
		CookingTime: ptr(15),
	}
}

func fieldErrors(t *testing.T, err error) ValidationErrors {
	t.Helper()
	require.Error(t, err)
	verrs, ok := AsValidationErrors(err)
	require.True(t, ok, "expected validation errors, got %v", err)
	return verrs
}

func TestRecipeRequestValidate(t *testing.T) {
	t.Run("valid create", func(t *testing.T) {
		assert.NoError(t, validRecipe().Validate(RecipeCreate))
	})

	t.Run("empty ingredients", func(t *testing.T) {
		r := validRecipe()
		r.Ingredients = []IngredientAmount{}
		assert.Contains(t, fieldErrors(t, r.Validate(RecipeCreate)), "ingredients")
	})

	t.Run("duplicate ingredients", func(t *testing.T) {
		r := validRecipe()
		r.Ingredients = []IngredientAmount{{ID: 3, Amount: 1}, {ID: 3, Amount: 2}}
		verrs := fieldErrors(t, r.Validate(RecipeCreate))
		assert.Contains(t, verrs["ingredients"][0], "more than once")
	})

	t.Run("amount out of range", func(t *testing.T) {
		r := validRecipe()
		r.Ingredients = []IngredientAmount{{ID: 1, Amount: 32001}}
		assert.Contains(t, fieldErrors(t, r.Validate(RecipeCreate)), "ingredients")
	})

	t.Run("cooking time bounds", func(t *testing.T) {
		for _, value := range []int{-1, 32001} {
			r := validRecipe()
			r.CookingTime = ptr(value)
			assert.Contains(t, fieldErrors(t, r.Validate(RecipeCreate)), "cooking_time")
		}
	})

	t.Run("name length counts characters", func(t *testing.T) {
		r := validRecipe()
		r.Name = ptr(strings.Repeat("б", 200))
		assert.NoError(t, r.Validate(RecipeCreate))

		r.Name = ptr(strings.Repeat("б", 201))
		assert.Contains(t, fieldErrors(t, r.Validate(RecipeCreate)), "name")
	})

	t.Run("create requires image", func(t *testing.T) {
		r := validRecipe()
		r.Image = nil
		assert.Contains(t, fieldErrors(t, r.Validate(RecipeCreate)), "image")
	})

	t.Run("put keeps image optional but requires scalars", func(t *testing.T) {
		r := validRecipe()
		r.Image = nil
		assert.NoError(t, r.Validate(RecipeReplace))

		r.Name = nil
		assert.Contains(t, fieldErrors(t, r.Validate(RecipeReplace)), "name")
	})

	t.Run("patch needs only ingredients", func(t *testing.T) {
		r := RecipeRequest{Ingredients: []IngredientAmount{{ID: 1, Amount: 1}}}
		assert.NoError(t, r.Validate(RecipePatch))

		r.Ingredients = nil
		assert.Contains(t, fieldErrors(t, r.Validate(RecipePatch)), "ingredients")
	})
}

func TestRegisterRequestValidate(t *testing.T) {
	valid := RegisterRequest{
		Email:     "cook@example.com",
		Username:  "cook.42",
		FirstName: "Ann",
		LastName:  "Cook",
		Password:  "long-enough",
	}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Username = "no spaces allowed"
	bad.Email = "not-an-email"
	bad.Password = "short"
	verrs := fieldErrors(t, bad.Validate())
	assert.Contains(t, verrs, "username")
	assert.Contains(t, verrs, "email")
	assert.Contains(t, verrs, "password")

	cyrillic := valid
	cyrillic.Username = "повар_" + strings.Repeat("ж", 144)
	cyrillic.FirstName = strings.Repeat("Ж", 150)
	cyrillic.LastName = "Кузнецова"
	assert.NoError(t, cyrillic.Validate())

	cyrillic.FirstName = strings.Repeat("Ж", 151)
	assert.Contains(t, fieldErrors(t, cyrillic.Validate()), "first_name")
}

func TestUpdateMeRequestValidate(t *testing.T) {
	assert.NoError(t, UpdateMeRequest{}.Validate())
	assert.NoError(t, UpdateMeRequest{FirstName: ptr("Bob")}.Validate())
	assert.NoError(t, UpdateMeRequest{LastName: ptr(strings.Repeat("я", 150))}.Validate())

	verrs := fieldErrors(t, UpdateMeRequest{Username: ptr("")}.Validate())
	assert.Contains(t, verrs, "username")
}

func TestValidationErrorsError(t *testing.T) {
	verrs := FieldError("name", "cannot be blank").Add("text", "cannot be blank")
	assert.Equal(t, "name: cannot be blank, text: cannot be blank", verrs.Error())
}
