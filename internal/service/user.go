package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserService handles accounts, profiles and subscriptions
type UserService struct {
	db      *gorm.DB
	store   storage.Storage
	remover ObjectRemover
	log     zerolog.Logger
}

// NewUserService creates a new UserService. Replaced avatars are handed to remover.
func NewUserService(db *gorm.DB, store storage.Storage, remover ObjectRemover) *UserService {
	return &UserService{
		db:      db,
		store:   store,
		remover: remover,
		log:     logger.Component("user_service"),
	}
}

// Register creates a user account with an optional avatar
func (s *UserService) Register(ctx context.Context, req *types.RegisterRequest) (*types.UserCreatedResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, 0, req.Email, req.Username); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
	}

	if req.Avatar != nil && *req.Avatar != "" {
		key, err := s.saveAvatar(ctx, *req.Avatar)
		if err != nil {
			return nil, err
		}
		user.Avatar = key
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		discardMedia(ctx, s.store, s.log, user.Avatar)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, types.FieldError("username", "A user with that username or email already exists.")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info().Uint("user_id", user.ID).Msg("user registered")

	return &types.UserCreatedResponse{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}, nil
}

// ListUsers returns one page of users ordered by id
func (s *UserService) ListUsers(ctx context.Context, viewerID uint, page types.PageQuery) ([]types.UserResponse, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	err := s.db.WithContext(ctx).Order("id").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	followed, err := followedAuthors(ctx, s.db, viewerID, ids)
	if err != nil {
		return nil, 0, err
	}

	result := make([]types.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(s.store, &users[i], followed[users[i].ID]))
	}
	return result, total, nil
}

// GetUser returns the profile of userID as seen by viewerID (0 for anonymous)
func (s *UserService) GetUser(ctx context.Context, viewerID, userID uint) (*types.UserResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	followed, err := followedAuthors(ctx, s.db, viewerID, []uint{user.ID})
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(s.store, user, followed[user.ID])
	return &resp, nil
}

// UpdateMe applies a partial profile update
func (s *UserService) UpdateMe(ctx context.Context, userID uint, req *types.UpdateMeRequest) (*types.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	var email, username string
	if req.Email != nil {
		email = *req.Email
		updates["email"] = email
	}
	if req.Username != nil {
		username = *req.Username
		updates["username"] = username
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}

	if err := s.checkUnique(ctx, userID, email, username); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, types.FieldError("username", "A user with that username or email already exists.")
			}
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	return s.GetUser(ctx, userID, userID)
}

// SetAvatar replaces the avatar of userID and returns its URL
func (s *UserService) SetAvatar(ctx context.Context, userID uint, req *types.SetAvatarRequest) (*types.AvatarResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, err := s.saveAvatar(ctx, req.Avatar)
	if err != nil {
		return nil, err
	}

	old := user.Avatar
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", key).Error; err != nil {
		discardMedia(ctx, s.store, s.log, key)
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}

	s.removeMedia(ctx, old)
	return &types.AvatarResponse{Avatar: mediaURL(s.store, key)}, nil
}

// DeleteAvatar clears the avatar of userID. Deleting a missing avatar succeeds.
func (s *UserService) DeleteAvatar(ctx context.Context, userID uint) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Avatar == "" {
		return nil
	}

	old := user.Avatar
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", "").Error; err != nil {
		return fmt.Errorf("failed to clear avatar: %w", err)
	}

	s.removeMedia(ctx, old)
	return nil
}

// SetPassword changes the password after checking the current one
func (s *UserService) SetPassword(ctx context.Context, userID uint, req *types.SetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !checkPassword(user.PasswordHash, req.CurrentPassword) {
		return types.FieldError("current_password", "Wrong password.")
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Subscribe makes userID follow authorID
func (s *UserService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit *int) (*types.SubscriptionResponse, error) {
	author, err := s.loadUser(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if userID == authorID {
		return nil, ErrSelfFollow
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check subscription: %w", err)
	}
	if count > 0 {
		return nil, ErrAlreadyFollowing
	}

	follow := &models.Follow{UserID: userID, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyFollowing
		}
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	subs, err := s.subscriptionResponses(ctx, []models.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &subs[0], nil
}

// Unsubscribe removes the subscription of userID to authorID
func (s *UserService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	if _, err := s.loadUser(ctx, authorID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return fmt.Errorf("failed to unsubscribe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFollowing
	}
	return nil
}

// ListSubscriptions returns one page of the authors userID follows, ordered by id
func (s *UserService) ListSubscriptions(ctx context.Context, userID uint, page types.PageQuery, recipesLimit *int) ([]types.SubscriptionResponse, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var authors []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("users.id").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&authors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	subs, err := s.subscriptionResponses(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

// subscriptionResponses renders followed authors with their newest recipes.
// A nil recipesLimit returns every recipe.
func (s *UserService) subscriptionResponses(ctx context.Context, authors []models.User, recipesLimit *int) ([]types.SubscriptionResponse, error) {
	result := make([]types.SubscriptionResponse, 0, len(authors))
	if len(authors) == 0 {
		return result, nil
	}

	ids := make([]uint, len(authors))
	for i := range authors {
		ids[i] = authors[i].ID
	}

	var counts []struct {
		AuthorID uint
		Total    int64
	}
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	recipeCounts := make(map[uint]int64, len(counts))
	for _, c := range counts {
		recipeCounts[c.AuthorID] = c.Total
	}

	for i := range authors {
		query := s.db.WithContext(ctx).
			Where("author_id = ?", authors[i].ID).
			Order("pub_date DESC, id DESC")
		if recipesLimit != nil {
			query = query.Limit(*recipesLimit)
		}

		var recipes []models.Recipe
		if err := query.Find(&recipes).Error; err != nil {
			return nil, fmt.Errorf("failed to load recipes of author %d: %w", authors[i].ID, err)
		}

		minified := make([]types.RecipeMinifiedResponse, 0, len(recipes))
		for j := range recipes {
			minified = append(minified, toRecipeMinified(s.store, &recipes[j]))
		}

		result = append(result, types.SubscriptionResponse{
			UserResponse: toUserResponse(s.store, &authors[i], true),
			Recipes:      minified,
			RecipesCount: recipeCounts[authors[i].ID],
		})
	}
	return result, nil
}

func (s *UserService) loadUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return &user, nil
}

// checkUnique reports taken emails and usernames, ignoring the user excludeID.
// Empty values are not checked.
func (s *UserService) checkUnique(ctx context.Context, excludeID uint, email, username string) error {
	verrs := types.ValidationErrors{}

	checks := []struct {
		field, column, value, msg string
	}{
		{"email", "email", email, "A user with that email already exists."},
		{"username", "username", username, "A user with that username already exists."},
	}
	for _, check := range checks {
		if check.value == "" {
			continue
		}
		var count int64
		err := s.db.WithContext(ctx).Model(&models.User{}).
			Where(check.column+" = ? AND id <> ?", check.value, excludeID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", check.field, err)
		}
		if count > 0 {
			verrs.Add(check.field, check.msg)
		}
	}

	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

func (s *UserService) saveAvatar(ctx context.Context, dataURI string) (string, error) {
	img, err := storage.DecodeDataURI(dataURI)
	if err != nil {
		return "", types.FieldError("avatar", err.Error())
	}

	key := storage.AvatarKey(img)
	if err := s.store.Save(ctx, key, img.Data, img.ContentType); err != nil {
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}
	return key, nil
}

func (s *UserService) removeMedia(ctx context.Context, key string) {
	removeMedia(ctx, s.remover, s.log, key)
}

// removeMedia hands a replaced or orphaned object to remover. Failures are
// logged only, the database change already happened.
func removeMedia(ctx context.Context, remover ObjectRemover, log zerolog.Logger, key string) {
	if key == "" || remover == nil {
		return
	}
	if err := remover.Remove(ctx, key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to remove media")
	}
}

// discardMedia deletes an object saved for a write that was rolled back.
func discardMedia(ctx context.Context, store storage.Storage, log zerolog.Logger, key string) {
	if key == "" {
		return
	}
	if err := store.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to discard media")
	}
}
