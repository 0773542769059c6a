package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stagehand-io/stagehand/pkg/models"
)

// GetUser fetches a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := s.db.WithContext(opCtx).First(&user, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// EnsureUser returns the user with the given ID, creating an empty profile
// row on first interaction. When userID is empty a fresh ID is assigned.
func (s *Store) EnsureUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		userID = uuid.New().String()
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	err := s.db.WithContext(opCtx).First(&user, "user_id = ?", userID).Error
	if err == nil {
		return &user, nil
	}
	if translate(err) != ErrNotFound {
		return nil, translate(err)
	}

	user = models.User{ID: userID, CreatedAt: time.Now().UTC()}
	if err := s.db.WithContext(opCtx).Create(&user).Error; err != nil {
		// A concurrent caller may have created the row between the read
		// and the insert; the existing row wins.
		if translate(err) == ErrAlreadyExists {
			return s.GetUser(ctx, userID)
		}
		return nil, translate(err)
	}
	return &user, nil
}

// UpdateUserProfile updates the optional profile fields of a user.
func (s *Store) UpdateUserProfile(ctx context.Context, userID, firstName, lastName, email string) (*models.User, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	updates := map[string]any{}
	if firstName != "" {
		updates["first_name"] = firstName
	}
	if lastName != "" {
		updates["last_name"] = lastName
	}
	if email != "" {
		updates["email"] = email
	}
	if len(updates) > 0 {
		res := s.db.WithContext(opCtx).Model(&models.User{}).Where("user_id = ?", userID).Updates(updates)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GetUser(ctx, userID)
}
