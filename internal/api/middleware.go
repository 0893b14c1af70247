/**
 * @description
 * Authentication and tenant-resolution middleware. The JWT middleware
 * validates the bearer token and extracts the subject; the tenant
 * middleware looks up the active tenant membership for that user and
 * injects an explicit domain.Session into the request context. Handlers
 * pull the session out and pass it to services as an argument — there is
 * no ambient global auth state anywhere below this layer.
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/store"
)

type contextKey string

const sessionContextKey = contextKey("session")

// SessionResolver looks up the active tenant membership for a user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, userID uuid.UUID) (*domain.Session, error)
}

// AuthMiddleware validates the bearer JWT, resolves the caller's tenant
// membership and injects the session into the request context.
func AuthMiddleware(jwtSecret string, resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}
			sub, ok := claims["sub"].(string)
			if !ok {
				http.Error(w, "User ID not found in token", http.StatusUnauthorized)
				return
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				http.Error(w, "Invalid user ID in token", http.StatusUnauthorized)
				return
			}

			sess, err := resolver.ResolveSession(r.Context(), userID)
			if err != nil {
				if errors.Is(err, store.ErrNoActiveTenant) {
					http.Error(w, "No active tenant membership", http.StatusForbidden)
					return
				}
				http.Error(w, "Failed to resolve session", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, *sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext retrieves the session injected by AuthMiddleware.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(domain.Session)
	return sess, ok
}
