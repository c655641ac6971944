package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/tagged-snippets/internal/apperror"
	"github.com/sakif/tagged-snippets/internal/service"
)

// Authenticator is the part of service.AuthService the auth endpoints use.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*service.TokenPair, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
}

// AuthHandler serves the login and token refresh endpoints.
type AuthHandler struct {
	auth   Authenticator
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
	Refresh string `json:"refresh,omitempty"`
	Access  string `json:"access,omitempty"`
}

// HandleLogin exchanges username/password for an access + refresh token pair.
//
// HTTP: POST /login
// REQUEST BODY: {"username": "alice", "password": "..."}
//
// Every failure, including internal ones, answers 400 "Login Failed" so the
// response never hints at which part of the credentials was wrong.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, loginResponse{Message: "Login Failed"})
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, apperror.ErrUnauthenticated) {
			h.logger.Error("login failed", slog.String("error", err.Error()))
		}
		writeJSON(w, http.StatusBadRequest, loginResponse{Message: "Login Failed"})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login Success",
		Success: true,
		Refresh: pair.Refresh,
		Access:  pair.Access,
	})
}

type tokenRefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenRefreshResponse struct {
	AccessToken string `json:"access_token"`
}

type refreshFailure struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// HandleTokenRefresh issues a new access token for a refresh token.
//
// HTTP: POST /token/refresh
// REQUEST BODY: {"refresh_token": "..."}
//
// Failures answer 400 with the reason ("token expired", "invalid token").
func (h *AuthHandler) HandleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req tokenRefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, refreshFailure{Message: "Invalid JSON body"})
		return
	}

	access, err := h.auth.RefreshAccessToken(r.Context(), req.RefreshToken)
	if err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			h.logger.Error("token refresh failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadRequest, refreshFailure{Message: "Token refresh failed"})
			return
		}
		writeJSON(w, http.StatusBadRequest, refreshFailure{Message: appErr.Message})
		return
	}

	writeJSON(w, http.StatusOK, tokenRefreshResponse{AccessToken: access})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// HandleRefresh is the standard refresh endpoint.
//
// HTTP: POST /refresh/
// REQUEST BODY: {"refresh": "..."}
//
// A missing token is 400; an invalid or expired one is 401.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	access, err := h.auth.RefreshAccessToken(r.Context(), req.Refresh)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{Access: access})
}
