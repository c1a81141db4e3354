package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/cardwise/cardwise-api/internal/pkg/response"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// Identity trusts the X-User-ID header set by the upstream auth
// gateway. Authentication itself is an external collaborator; the core
// only needs to know which user's snapshot to operate on.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-User-ID")
		if raw == "" {
			response.Unauthorized(w, "Missing X-User-ID header")
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			response.Unauthorized(w, "Invalid X-User-ID header")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
