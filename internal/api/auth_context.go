package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-reader/internal/auth"
	domainerrors "github.com/listenupapp/listenup-reader/internal/errors"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	// userIDKey is the context key for the authenticated reader ID.
	userIDKey ctxKey = "userID"
	// tokenExpiredKey marks a request whose bearer token has expired.
	tokenExpiredKey ctxKey = "tokenExpired"
)

// GetUserID returns the authenticated reader ID from context.
// Returns 401 error if the request is not authenticated.
func GetUserID(ctx context.Context) (string, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		if expired, _ := ctx.Value(tokenExpiredKey).(bool); expired {
			return "", domainerrors.TokenExpired("Access token expired")
		}
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return userID, nil
}

// userIDFromContext returns the reader ID, or "" when unauthenticated.
func userIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// setUserID stores the reader ID in context.
func setUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// authMiddleware returns a middleware that validates Bearer tokens and stores the reader ID in context.
// If no token is present or invalid, continues without a reader in context.
// Handlers use GetUserID to check authentication.
func authMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.VerifyAccessToken(token)
			if errors.Is(err, auth.ErrTokenExpired) {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenExpiredKey, true)))
				return
			}
			if err != nil {
				// Invalid token - continue without user (handler will reject if auth required)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(setUserID(r.Context(), claims.UserID)))
		})
	}
}
