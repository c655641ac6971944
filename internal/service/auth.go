// Package service: authentication business logic.
//
// AuthService is the business logic layer for authentication. It sits between
// the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// KEY RESPONSIBILITIES:
//   - Verify username/password and issue an access + refresh token pair
//   - Exchange a refresh token for a new access token
//   - Authenticate bearer access tokens for the middleware
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/tagged-snippets/internal/apperror"
	"github.com/sakif/tagged-snippets/internal/auth"
	"github.com/sakif/tagged-snippets/internal/model"
	"github.com/sakif/tagged-snippets/internal/repository"
)

// compile-time check: the bearer middleware talks to AuthService through
// this interface.
var _ auth.Authenticator = (*AuthService)(nil)

// Messages clients see. Login failures never say which part was wrong.
const (
	msgInvalidCredentials   = "No active account found with the given credentials"
	msgRefreshNotProvided   = "Refresh token not provided"
	msgTokenExpired         = "token expired"
	msgTokenInvalid         = "invalid token"
	msgUserInactiveOrAbsent = "User not found or inactive"
)

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → generate/validate JWTs
//   - passwords  *auth.PasswordService      → bcrypt verification
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// TokenPair is what a successful login hands back.
type TokenPair struct {
	Access  string
	Refresh string
}

// Login verifies the credentials and issues a fresh token pair.
//
// Unknown usernames, inactive accounts and wrong passwords all return the
// same apperror.ErrUnauthenticated. For unknown usernames a dummy bcrypt
// comparison still runs so response time does not reveal which usernames
// exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if username == "" || password == "" {
		return nil, apperror.Unauthenticated(msgInvalidCredentials)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyDummy(password)
			return nil, apperror.Unauthenticated(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected", slog.String("username", username))
			return nil, apperror.Unauthenticated(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: verifying password for %q: %w", username, err)
	}

	if !user.IsActive {
		s.logger.Info("login rejected for inactive user", slog.Int64("userID", user.ID))
		return nil, apperror.Unauthenticated(msgInvalidCredentials)
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	// A failed last_login stamp should not fail the login itself.
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to record last login",
			slog.Int64("userID", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("user logged in",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return pair, nil
}

func (s *AuthService) issue(user *model.User) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccess(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating access token for user %d: %w", user.ID, err)
	}
	refresh, err := s.tokens.GenerateRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating refresh token for user %d: %w", user.ID, err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// RefreshAccessToken exchanges a refresh token for a new access token.
//
// An empty token is a validation error; an expired, tampered or
// wrong-typed token, or one whose user is gone or inactive, is
// apperror.ErrUnauthenticated.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperror.ValidationFailed("refresh_token", msgRefreshNotProvided)
	}

	userID, err := s.validate(ctx, refreshToken, auth.RefreshToken)
	if err != nil {
		return "", err
	}

	access, err := s.tokens.GenerateAccess(userID)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating access token for user %d: %w", userID, err)
	}
	return access, nil
}

// Authenticate validates an access token and returns the user id it
// belongs to. It implements auth.Authenticator for the bearer middleware.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (int64, error) {
	return s.validate(ctx, accessToken, auth.AccessToken)
}

// validate checks the token and that its user still exists and is active.
func (s *AuthService) validate(ctx context.Context, token string, want auth.TokenType) (int64, error) {
	userID, err := s.tokens.Validate(token, want)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return 0, apperror.Unauthenticated(msgTokenExpired)
		}
		return 0, apperror.Unauthenticated(msgTokenInvalid)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return 0, apperror.Unauthenticated(msgUserInactiveOrAbsent)
		}
		return 0, fmt.Errorf("service/auth: fetching user %d: %w", userID, err)
	}
	if !user.IsActive {
		return 0, apperror.Unauthenticated(msgUserInactiveOrAbsent)
	}

	return userID, nil
}
