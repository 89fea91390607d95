package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/workdeck/workdeck-api/pkg/auth"
)

type contextKey struct{}

var userIDKey = contextKey{}

// UserID returns the authenticated user id stored in the request
// context by RequireAuth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// RequireAuth validates the bearer token on the request and injects
// the caller's user id into the context. Requests without a valid
// token are rejected with 401.
func RequireAuth(jwtAuth auth.JWTAuthenticator, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, jwtAuth, secret)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"message": "Not authorized",
				})
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractUserID(r *http.Request, jwtAuth auth.JWTAuthenticator, secret string) (string, error) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errInvalidAuthHeader
	}

	claims := &auth.UserClaims{}
	if _, err := jwtAuth.ValidateTokenWithClaims(parts[1], secret, claims); err != nil {
		return "", err
	}

	return claims.UserID, nil
}

var errInvalidAuthHeader = errors.New("invalid authorization header format")
