package api_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestRegisterAndLogin(t *testing.T) {
	a := setupAPI(t)

	w := a.do(http.MethodPost, "/api/users/", map[string]string{
		"email":      "bob@example.com",
		"username":   "bob",
		"first_name": "Bob",
		"last_name":  "Builder",
		"password":   "correct-horse",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created types.UserCreatedResponse
	testhelpers.DecodeJSON(t, w, &created)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "bob", created.Username)
	assert.NotContains(t, w.Body.String(), "password")

	t.Run("duplicate username", func(t *testing.T) {
		w := a.do(http.MethodPost, "/api/users/", map[string]string{
			"email":      "other@example.com",
			"username":   "bob",
			"first_name": "Bob",
			"last_name":  "Builder",
			"password":   "correct-horse",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var errs map[string][]string
		testhelpers.DecodeJSON(t, w, &errs)
		assert.Contains(t, errs, "username")
	})

	t.Run("missing fields", func(t *testing.T) {
		w := a.do(http.MethodPost, "/api/users/", map[string]string{"username": "carol"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var errs map[string][]string
		testhelpers.DecodeJSON(t, w, &errs)
		assert.Contains(t, errs, "email")
		assert.Contains(t, errs, "password")
	})

	t.Run("malformed json", func(t *testing.T) {
		w := a.do(http.MethodPost, "/api/users/", "not an object", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "JSON parse error")
	})

	var token types.TokenResponse
	t.Run("login", func(t *testing.T) {
		w := a.do(http.MethodPost, "/api/auth/token/login/", map[string]string{
			"email":    "bob@example.com",
			"password": "correct-horse",
		}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		testhelpers.DecodeJSON(t, w, &token)
		assert.NotEmpty(t, token.AuthToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := a.do(http.MethodPost, "/api/auth/token/login/", map[string]string{
			"email":    "bob@example.com",
			"password": "wrong-horse",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"non_field_errors":["Unable to log in with provided credentials."]}`, w.Body.String())
	})

	t.Run("me and logout", func(t *testing.T) {
		w := a.do(http.MethodGet, "/api/users/me/", nil, token.AuthToken)
		require.Equal(t, http.StatusOK, w.Code)

		var me types.UserResponse
		testhelpers.DecodeJSON(t, w, &me)
		assert.Equal(t, created.ID, me.ID)
		assert.False(t, me.IsSubscribed)
		assert.Nil(t, me.Avatar)

		w = a.do(http.MethodPost, "/api/auth/token/logout/", nil, token.AuthToken)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestListUsersPagination(t *testing.T) {
	a := setupAPI(t)
	for i := 0; i < 8; i++ {
		testhelpers.CreateTestUser(t, a.db, "user"+strconv.Itoa(i))
	}

	w := a.do(http.MethodGet, "/api/users/?limit=3", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var page types.Page[types.UserResponse]
	testhelpers.DecodeJSON(t, w, &page)
	assert.EqualValues(t, 8, page.Count)
	assert.Len(t, page.Results, 3)
	require.NotNil(t, page.Next)
	assert.Equal(t, testBaseURL+"/api/users/?limit=3&page=2", *page.Next)
	assert.Nil(t, page.Previous)

	w = a.do(http.MethodGet, "/api/users/?limit=3&page=3", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page = types.Page[types.UserResponse]{}
	testhelpers.DecodeJSON(t, w, &page)
	assert.Len(t, page.Results, 2)
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, testBaseURL+"/api/users/?limit=3&page=2", *page.Previous)

	for _, query := range []string{"page=4&limit=3", "page=0", "page=abc"} {
		w = a.do(http.MethodGet, "/api/users/?"+query, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code, query)
		assert.JSONEq(t, `{"detail":"Invalid page."}`, w.Body.String())
	}
}

func TestGetUser(t *testing.T) {
	a := setupAPI(t)
	alice := testhelpers.CreateTestUser(t, a.db, "alice")

	w := a.do(http.MethodGet, "/api/users/"+strconv.Itoa(int(alice.ID))+"/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var user types.UserResponse
	testhelpers.DecodeJSON(t, w, &user)
	assert.Equal(t, "alice", user.Username)

	for _, path := range []string{"/api/users/999/", "/api/users/abc/"} {
		w = a.do(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestAvatarEndpoints(t *testing.T) {
	a := setupAPI(t)
	alice := testhelpers.CreateTestUser(t, a.db, "alice")
	token := a.token(t, alice)

	w := a.do(http.MethodPut, "/api/users/me/avatar/", map[string]string{
		"avatar": testhelpers.PNGDataURI(t, "image/png"),
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var avatar types.AvatarResponse
	testhelpers.DecodeJSON(t, w, &avatar)
	assert.Contains(t, avatar.Avatar, testBaseURL+"/media/"+storage.AvatarPrefix)
	first := a.mediaPath(avatar.Avatar)
	assert.FileExists(t, first, "uploaded avatar must be kept")

	w = a.do(http.MethodPut, "/api/users/me/avatar/", map[string]string{
		"avatar": testhelpers.JPEGDataURI(t),
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testhelpers.DecodeJSON(t, w, &avatar)
	second := a.mediaPath(avatar.Avatar)
	assert.FileExists(t, second)
	assert.NoFileExists(t, first, "replaced avatar is removed")

	w = a.do(http.MethodPut, "/api/users/me/avatar/", map[string]string{}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodDelete, "/api/users/me/avatar/", nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NoFileExists(t, second)

	w = a.do(http.MethodGet, "/api/users/me/", nil, token)
	var me types.UserResponse
	testhelpers.DecodeJSON(t, w, &me)
	assert.Nil(t, me.Avatar)
}

func TestSetPasswordEndpoint(t *testing.T) {
	a := setupAPI(t)
	alice := testhelpers.CreateTestUser(t, a.db, "alice")
	token := a.token(t, alice)

	w := a.do(http.MethodPost, "/api/users/set_password/", map[string]string{
		"current_password": "wrong-password",
		"new_password":     "brand-new-pass",
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/users/set_password/", map[string]string{
		"current_password": testhelpers.TestPassword,
		"new_password":     "brand-new-pass",
	}, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(http.MethodPost, "/api/auth/token/login/", map[string]string{
		"email":    alice.Email,
		"password": "brand-new-pass",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubscriptionEndpoints(t *testing.T) {
	a := setupAPI(t)
	alice := testhelpers.CreateTestUser(t, a.db, "alice")
	bob := testhelpers.CreateTestUser(t, a.db, "bob")
	salt := testhelpers.CreateTestIngredient(t, a.db, "salt", "g")
	for _, name := range []string{"soup", "stew", "pie"} {
		testhelpers.CreateTestRecipe(t, a.db, bob, name, map[*models.Ingredient]int{salt: 1})
	}
	token := a.token(t, alice)
	bobPath := "/api/users/" + strconv.Itoa(int(bob.ID)) + "/subscribe/"

	w := a.do(http.MethodPost, bobPath+"?recipes_limit=2", nil, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var sub types.SubscriptionResponse
	testhelpers.DecodeJSON(t, w, &sub)
	assert.True(t, sub.IsSubscribed)
	assert.EqualValues(t, 3, sub.RecipesCount)
	assert.Len(t, sub.Recipes, 2)

	w = a.do(http.MethodPost, bobPath, nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/users/"+strconv.Itoa(int(alice.ID))+"/subscribe/", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/users/999/subscribe/", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, "/api/users/subscriptions/", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var page types.Page[types.SubscriptionResponse]
	testhelpers.DecodeJSON(t, w, &page)
	assert.EqualValues(t, 1, page.Count)
	assert.Equal(t, bob.ID, page.Results[0].ID)

	w = a.do(http.MethodDelete, bobPath, nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(http.MethodDelete, bobPath, nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
