package service

import (
	"context"
	"fmt"
	"strings"

	"bookshelf_api/internal/common"
	"bookshelf_api/internal/common/security"
	"bookshelf_api/internal/common/validator"
	"bookshelf_api/internal/domain/model"
	"bookshelf_api/internal/domain/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=30,username"`
	Email    *string `json:"email,omitempty" validate:"omitempty,max=255,email"`
}

func (r *UpdateProfileRequest) normalize() {
	if r.Username != nil {
		v := strings.TrimSpace(*r.Username)
		r.Username = &v
	}
	if r.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &v
	}
}

// GetUser returns a user without its password digest.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

// UpdateProfile changes username and/or email of targetID on behalf of requester.
func (s *UserService) UpdateProfile(ctx context.Context, requester *model.User, targetID string, req UpdateProfileRequest) (*model.User, error) {
	if d := security.CanUpdateProfile(security.IdentityOf(requester), targetID); !d.Allowed {
		return nil, fmt.Errorf("%s: %w", d.Reason, common.ErrForbidden)
	}

	req.normalize()
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	fields := model.UserUpdate{Username: req.Username, Email: req.Email}
	if fields.Empty() {
		return nil, common.NewValidationError(map[string]string{"username": "username or email must be provided"})
	}

	user, err := s.userRepo.UpdateFields(ctx, targetID, fields)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}
