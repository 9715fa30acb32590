package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookshelf_api/internal/common"
	"bookshelf_api/internal/common/security"
	"bookshelf_api/internal/common/validator"
	"bookshelf_api/internal/domain/model"
	"bookshelf_api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *security.TokenManager
	log      logrus.FieldLogger
}

func NewAuthService(userRepo repository.UserRepository, tokens *security.TokenManager, log logrus.FieldLogger) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens, log: log}
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Email    string `json:"email" validate:"required,max=255,email"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

func (r *SignupRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required_without=Email"` // Can be username or email
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	req.normalize()
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmailOrUsername(ctx, req.Email, req.Username)
	switch {
	case err == nil:
		if existing.Username == req.Username {
			return nil, fmt.Errorf("username %q is already taken: %w", req.Username, common.ErrConflict)
		}
		return nil, fmt.Errorf("email %q is already registered: %w", req.Email, common.ErrConflict)
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           model.RoleUser, // Default role
	}

	// The store is the authority on uniqueness; a concurrent signup that
	// passed the check above surfaces here as ErrConflict.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.log.WithField("user_id", user.ID).Info("user registered")

	user.HashedPassword = "" // Clear password before returning
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	identifier := strings.TrimSpace(req.Login)
	email, username := strings.ToLower(identifier), identifier
	if identifier == "" {
		email, username = strings.ToLower(strings.TrimSpace(req.Email)), ""
	}

	user, err := s.userRepo.FindByEmailOrUsername(ctx, email, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	ok, err := security.CheckPasswordHash(req.Password, user.HashedPassword)
	if err != nil {
		return nil, fmt.Errorf("verifying password for user %s: %w", user.ID, err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

// Authenticate verifies a bearer token and resolves its user. A valid token
// for a user that no longer exists is rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("token subject no longer exists: %w", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to resolve token subject: %w", err)
	}
	user.HashedPassword = ""
	return user, nil
}
