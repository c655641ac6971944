package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/tagged-snippets/internal/apperror"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of type contextKey, so no other package
// can read or shadow the user id stored in the request context.
type contextKey string

const userIDKey contextKey = "userID"

// Authenticator turns a bearer access token into a user id.
//
// service.AuthService implements it. The middleware depends on this
// interface rather than on the service package, which itself imports auth.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (int64, error)
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads "Authorization: Bearer <token>", asks the Authenticator to
// validate it, and stores the user id in the request context. A missing or
// rejected token ends the request with 401 before any handler runs. Any
// other failure (the user lookup hitting a broken database, say) is logged
// and answered with a generic 500.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "Authentication credentials were not provided.")
				return
			}

			userID, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, apperror.ErrUnauthenticated) {
					unauthorized(w, "Given token not valid for any token type")
					return
				}
				logger.Error("authenticating request",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeEnvelope(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// ContextWithUserID returns a copy of ctx carrying the authenticated user id.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user's ID from the request context.
//
// Returns (0, false) if the request went through no RequireAuth middleware.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// bearerToken extracts the token from the Authorization header.
// The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeEnvelope(w, http.StatusUnauthorized, "unauthorized", message)
}

// writeEnvelope writes the same error body shape the handlers use.
func writeEnvelope(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   kind,
		"message": message,
		"success": false,
	})
}
