package core

import (
	"context"
	"errors"
	"fmt"

	"cardsync-backend-go/internal/db"
	"cardsync-backend-go/internal/models"
)

// userService implements the UserService interface.
type userService struct {
	userRepo db.UserRepository
}

// NewUserService creates a new UserService instance.
func NewUserService(ur db.UserRepository) UserService {
	return &userService{userRepo: ur}
}

// GetOrCreate retrieves the user's profile, provisioning a fresh one with the
// free plan and a zero contact count on first authenticated access.
func (s *userService) GetOrCreate(ctx context.Context, userID, email string) (*models.UserProfile, bool, error) {
	if s.userRepo == nil {
		return nil, false, errors.New("userService: component not initialized")
	}
	if userID == "" {
		return nil, false, errors.New("userID cannot be empty")
	}

	candidate := &models.UserProfile{
		ID:               userID,
		Email:            email,
		SubscriptionPlan: models.PlanFree,
		ContactCount:     0,
	}
	profile, created, err := s.userRepo.GetOrCreate(ctx, candidate)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get or create profile for user '%s': %w", userID, err)
	}
	return profile, created, nil
}

// GetByID retrieves an existing user profile.
func (s *userService) GetByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: id '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get profile for user '%s': %w", userID, err)
	}
	return profile, nil
}
