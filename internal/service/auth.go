package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenTTL  time.Duration
	revoker   TokenRevoker
}

// NewAuthService builds the token service. revoker may be nil, in which case
// logout cannot invalidate tokens before they expire.
func NewAuthService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration, revoker TokenRevoker) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		revoker:   revoker,
	}
}

// Login checks the credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, req *types.LoginRequest) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	if !checkPassword(user.PasswordHash, req.Password) {
		return "", ErrInvalidCredentials
	}

	return s.GenerateToken(&user)
}

// Logout revokes the token described by claims for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *types.TokenClaims) error {
	if s.revoker == nil || claims == nil || claims.ID == "" {
		return nil
	}

	ttl := s.tokenTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return s.revoker.RevokeToken(ctx, claims.ID, ttl)
}

func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID:   user.ID,
		Username: user.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a token, rejects revoked ones and checks that its user still exists.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	if s.revoker != nil && claims.ID != "" {
		revoked, err := s.revoker.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			// Redis outages must not lock every user out.
			log.Warn().Err(err).Msg("token revocation check failed")
		} else if revoked {
			return nil, ErrInvalidToken
		}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", claims.UserID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to load token user: %w", err)
	}
	if count == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
