package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

// AuthMiddleware validates JWT tokens and extracts user claims. Requests
// without valid credentials are rejected.
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				respondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			ctx, err := authenticate(r.Context(), authHeader, jwtSecret)
			if err != "" {
				logger.Debug("Token validation failed", zap.String("reason", err))
				respondWithError(w, http.StatusUnauthorized, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthMiddleware extracts user claims when valid credentials are
// present and passes the request through untouched when they are absent.
// Used on routes that serve both guests and registered users; an invalid
// token is still rejected rather than silently downgraded to guest.
func OptionalAuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, err := authenticate(r.Context(), authHeader, jwtSecret)
			if err != "" {
				logger.Debug("Token validation failed", zap.String("reason", err))
				respondWithError(w, http.StatusUnauthorized, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate parses the Authorization header and returns a context carrying
// the user's ID and role, or a non-empty rejection message
func authenticate(ctx context.Context, authHeader, jwtSecret string) (context.Context, string) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ctx, "invalid authorization header format"
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})

	if err != nil {
		if err == jwt.ErrTokenExpired {
			return ctx, "token expired"
		}
		return ctx, "invalid token"
	}

	if !token.Valid {
		return ctx, "invalid token"
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx, "invalid token claims"
	}

	rawID, ok := claims["user_id"].(string)
	if !ok {
		return ctx, "invalid token claims"
	}

	userID, err := uuid.Parse(rawID)
	if err != nil {
		return ctx, "invalid token claims"
	}

	role, ok := claims["role"].(string)
	if !ok {
		return ctx, "invalid token claims"
	}

	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	return ctx, ""
}

// GetUserID extracts the authenticated user's ID from request context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}
