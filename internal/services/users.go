package services

import (
	"context"
	"strings"
	"time"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/repository"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

type UserService interface {
	EnsureUser(ctx context.Context, p *models.Principal) (*models.User, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error)
}

type userService struct {
	repo   *repository.Repository
	logger *utils.Logger
}

// EnsureUser creates the user record on first sign-in and keeps the email in
// sync with the identity provider afterwards.
func (s *userService) EnsureUser(ctx context.Context, p *models.Principal) (*models.User, error) {
	now := time.Now().UTC()
	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		name, _, _ = strings.Cut(p.Email, "@")
	}
	user := &models.User{
		ID:          p.UID,
		Email:       p.Email,
		DisplayName: name,
		Role:        models.RoleIndividual,
		Locale:      "es-ES",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Users.Upsert(ctx, user); err != nil {
		s.logger.Error("Failed to upsert user", "error", err, "user_id", p.UID)
		return nil, utils.WrapInternal("Failed to register user", err)
	}
	return s.GetProfile(ctx, p.UID)
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.Users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to get user", "error", err, "user_id", userID)
		return nil, utils.WrapInternal("Failed to retrieve user", err)
	}
	if user == nil {
		return nil, utils.NewNotFoundError("User not found")
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.BarNumber != nil {
		user.BarNumber = strings.TrimSpace(*req.BarNumber)
	}
	if req.Locale != nil {
		user.Locale = *req.Locale
	}
	if user.Role == models.RoleLawyer && user.BarNumber == "" {
		return nil, utils.NewBadRequestError("bar_number is required for lawyers")
	}

	if err := s.repo.Users.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user", "error", err, "user_id", userID)
		return nil, utils.WrapInternal("Failed to update profile", err)
	}
	s.logger.Info("Profile updated", "user_id", userID, "role", user.Role)
	return user, nil
}
