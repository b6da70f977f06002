package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/branchbook/branchbook-api/auth"
	"github.com/branchbook/branchbook-api/utils"
)

var ErrMalformedAuthHeader = errors.New("authorization header must be \"Bearer <token>\"")

// BearerTokenExtractor accepts exactly two space separated parts with the
// scheme "Bearer". A missing header yields an empty token and no error.
func BearerTokenExtractor(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", nil
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMalformedAuthHeader
	}
	return parts[1], nil
}

// NewSessionGuard rejects any request without a valid access token. On
// success the *auth.Claims are available through utils.GetUserID.
func NewSessionGuard(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	validate := func(ctx context.Context, token string) (interface{}, error) {
		claims, err := tokens.VerifyAccessToken(token)
		if err != nil {
			return nil, err
		}
		if _, err := claims.UserID(); err != nil {
			return nil, err
		}
		return claims, nil
	}

	m := jwtmiddleware.New(
		validate,
		jwtmiddleware.WithTokenExtractor(BearerTokenExtractor),
		jwtmiddleware.WithErrorHandler(sessionErrorHandler),
	)
	return m.CheckJWT
}

// Expired tokens answer 403 so clients know a refresh may help; every other
// failure is 401.
func sessionErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, jwtmiddleware.ErrJWTMissing):
		utils.ErrorResponse(w, http.StatusUnauthorized, "missing")
	case errors.Is(err, ErrMalformedAuthHeader):
		utils.ErrorResponse(w, http.StatusUnauthorized, "malformed")
	case errors.Is(err, jwt.ErrTokenExpired):
		utils.ErrorResponse(w, http.StatusForbidden, "expired")
	default:
		slog.Debug("access token rejected", "path", r.URL.Path, "error", err)
		utils.ErrorResponse(w, http.StatusUnauthorized, "invalid")
	}
}
