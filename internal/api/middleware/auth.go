// Package middleware holds the HTTP middleware chain: request tracing
// and bearer-token authentication. Tokens are issued by the platform's
// identity service; this service only verifies and consumes them.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/api/shared"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/redact"
)

// Token validation errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// principalClaims are the custom claims this service consumes from the
// platform's access tokens.
type principalClaims struct {
	Role      string `json:"role"`
	StudentID string `json:"student_id,omitempty"`
	SchoolID  string `json:"school_id,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware authenticates requests and attaches the resulting
// principal to the request context.
type AuthMiddleware struct {
	secret []byte
}

// NewAuthMiddleware creates an AuthMiddleware verifying tokens with the
// given HMAC secret.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	if secret == "" {
		panic("JWT secret cannot be empty")
	}
	return &AuthMiddleware{secret: []byte(secret)}
}

// Authenticate validates the bearer token from the Authorization header
// and adds the principal to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		principal, err := m.validateToken(parts[1])
		if err != nil {
			switch {
			case errors.Is(err, ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, ErrInvalidToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				slog.Error("failed to validate token", "error", redact.Error(err))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		ctx := context.WithValue(r.Context(), shared.PrincipalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validateToken parses and verifies the token and builds the principal
// from its claims.
func (m *AuthMiddleware) validateToken(tokenString string) (domain.Principal, error) {
	var claims principalClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, ErrExpiredToken
		}
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return domain.Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}

	principal := domain.Principal{
		UserID: userID,
		Role:   domain.Role(claims.Role),
	}
	if claims.StudentID != "" {
		if principal.StudentID, err = uuid.Parse(claims.StudentID); err != nil {
			return domain.Principal{}, fmt.Errorf("%w: malformed student ID", ErrInvalidToken)
		}
	}
	if claims.SchoolID != "" {
		if principal.SchoolID, err = uuid.Parse(claims.SchoolID); err != nil {
			return domain.Principal{}, fmt.Errorf("%w: malformed school ID", ErrInvalidToken)
		}
	}

	if err := principal.Validate(); err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return principal, nil
}

// GetPrincipal extracts the authenticated principal from the request
// context. The second return reports whether one was present.
func GetPrincipal(r *http.Request) (domain.Principal, bool) {
	principal, ok := r.Context().Value(shared.PrincipalContextKey).(domain.Principal)
	return principal, ok
}
