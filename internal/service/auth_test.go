package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestLogin(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	user := testhelpers.CreateTestUser(t, db, "cook")
	authSvc := service.NewAuthService(db, "test-secret", time.Hour, nil)
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		token, err := authSvc.Login(ctx, &types.LoginRequest{Email: user.Email, Password: testhelpers.TestPassword})
		require.NoError(t, err)

		claims, err := authSvc.ValidateToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, "cook", claims.Username)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := authSvc.Login(ctx, &types.LoginRequest{Email: user.Email, Password: "nope"})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := authSvc.Login(ctx, &types.LoginRequest{Email: "ghost@example.com", Password: testhelpers.TestPassword})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestValidateToken(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	user := testhelpers.CreateTestUser(t, db, "cook")
	authSvc := service.NewAuthService(db, "test-secret", time.Hour, nil)
	ctx := context.Background()

	t.Run("garbage", func(t *testing.T) {
		_, err := authSvc.ValidateToken(ctx, "not-a-token")
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		other := service.NewAuthService(db, "other-secret", time.Hour, nil)
		token, err := other.GenerateToken(user)
		require.NoError(t, err)

		_, err = authSvc.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := service.NewAuthService(db, "test-secret", -time.Minute, nil)
		token, err := expired.GenerateToken(user)
		require.NoError(t, err)

		_, err = authSvc.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &types.TokenClaims{UserID: user.ID, Username: user.Username}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = authSvc.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("deleted user", func(t *testing.T) {
		gone := testhelpers.CreateTestUser(t, db, "gone")
		token, err := authSvc.GenerateToken(gone)
		require.NoError(t, err)
		require.NoError(t, db.Delete(gone).Error)

		_, err = authSvc.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})
}

func TestLogoutRevokesToken(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	user := testhelpers.CreateTestUser(t, db, "cook")
	revoker := newMemoryRevoker()
	authSvc := service.NewAuthService(db, "test-secret", time.Hour, revoker)
	ctx := context.Background()

	token, err := authSvc.GenerateToken(user)
	require.NoError(t, err)
	claims, err := authSvc.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, authSvc.Logout(ctx, claims))

	ttl, ok := revoker.revoked[claims.ID]
	require.True(t, ok)
	assert.Greater(t, ttl, 59*time.Minute)

	_, err = authSvc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	other, err := authSvc.GenerateToken(user)
	require.NoError(t, err)
	_, err = authSvc.ValidateToken(ctx, other)
	assert.NoError(t, err, "logout must only revoke the presented token")
}

func TestLogoutWithoutRevoker(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	authSvc := service.NewAuthService(db, "test-secret", time.Hour, nil)

	assert.NoError(t, authSvc.Logout(context.Background(), &types.TokenClaims{}))
}
