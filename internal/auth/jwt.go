// Package auth provides JWT token issuance and validation, bcrypt password
// hashing and the bearer-token middleware for the snippets API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. POST /login with username + password
//  2. Server verifies the bcrypt hash and issues TWO JWTs:
//     - an access token (default lifetime 24h)
//     - a refresh token (default lifetime 7 days)
//  3. The client sends "Authorization: Bearer <access>" on every API call;
//     the middleware validates it and stores the user id in the request context
//  4. When the access token expires, the client trades the refresh token
//     for a new access token at /token/refresh (or /refresh/)
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"7","exp":...,"jti":"...","token_type":"access"}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// Both token kinds share one secret, so the token_type claim is what stops a
// refresh token from being used as an access token and vice versa.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Validation failures. Callers match them with errors.Is; the messages are
// safe to show to clients.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrWrongTokenType = errors.New("token has wrong type")
)

// minSecretLength is the shortest HMAC secret NewTokenService accepts.
const minSecretLength = 16

// TokenConfig configures a TokenService.
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens.
// The same secret must be used for both operations.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService from the given config.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLength)
	}
	if cfg.Issuer == "" {
		return nil, errors.New("auth: JWT issuer must not be empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &TokenService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims (sub, iss, exp,
// iat, jti) and adds the token kind.
type claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
}

// GenerateAccess issues an access token for userID.
func (s *TokenService) GenerateAccess(userID int64) (string, error) {
	return s.GenerateWithDuration(userID, AccessToken, s.accessTTL)
}

// GenerateRefresh issues a refresh token for userID.
func (s *TokenService) GenerateRefresh(userID int64) (string, error) {
	return s.GenerateWithDuration(userID, RefreshToken, s.refreshTTL)
}

// GenerateWithDuration creates a token of the given type with a custom expiry.
// Used by GenerateAccess/GenerateRefresh and by tests (a negative duration
// yields an already-expired token).
//
// Every token gets a fresh xid as its jti, so two tokens minted in the same
// second for the same user still differ.
func (s *TokenService) GenerateWithDuration(userID int64, typ TokenType, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			ID:        xid.New().String(),
		},
		TokenType: typ,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the user id stored
// in its "sub" claim.
//
// VALIDATION CHECKS:
//   - Signature is valid and the algorithm is HS256 (no "none", no RS/HS confusion)
//   - Token is not expired and carries an exp claim
//   - Issuer matches the configured issuer
//   - token_type equals want
func (s *TokenService) Validate(tokenStr string, want TokenType) (int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, ErrTokenInvalid
	}

	if c.TokenType != want {
		return 0, ErrWrongTokenType
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}

	return userID, nil
}
