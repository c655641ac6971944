package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/tagged-snippets/internal/apperror"
	"github.com/sakif/tagged-snippets/internal/auth"
	"github.com/sakif/tagged-snippets/internal/model"
	"github.com/sakif/tagged-snippets/internal/repository"
)

// NewUserInput describes an account to provision.
type NewUserInput struct {
	Username  string `json:"username"   validate:"required,max=150"`
	Password  string `json:"password"   validate:"required"`
	Email     string `json:"email"      validate:"omitempty,email,max=254"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name"  validate:"max=150"`
}

// UserService provisions and manages login accounts. It backs the
// `user` CLI commands; there is no HTTP surface for it.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewUserService creates a UserService that hashes with passwords.
func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{users: users, passwords: passwords, logger: logger}
}

// Create hashes the password and stores a new active account.
// A taken username is apperror.ErrConflict.
func (s *UserService) Create(ctx context.Context, in NewUserInput) (*model.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/user: creating %q: %w", in.Username, err)
	}

	s.logger.Info("user created",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// SetActive enables or disables the named account.
func (s *UserService) SetActive(ctx context.Context, username string, active bool) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.users.SetActive(ctx, user.ID, active); err != nil {
		return fmt.Errorf("service/user: updating %q: %w", username, err)
	}

	s.logger.Info("user active flag changed",
		slog.Int64("userID", user.ID),
		slog.Bool("active", active),
	)
	return nil
}
