package middleware

import (
	"context"
	"net/http"

	"github.com/MayderC/zayrel-be/internal/models"
)

type contextKey int

const (
	contextKeyUserID contextKey = iota
	contextKeyAdmin
)

// TokenVerifier validates session tokens.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*models.TokenPayload, error)
}

// Auth requires a valid token cookie and puts its payload into the context
func Auth(ts TokenVerifier) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("auth_token")
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			payload, err := ts.VerifyToken(cookie.Value)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUserID, payload.UserID)
			ctx = context.WithValue(ctx, contextKeyAdmin, payload.Admin)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly rejects requests whose token lacks the admin flag. Mount after Auth.
func AdminOnly() func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, ok := r.Context().Value(contextKeyAdmin).(bool)
			if !ok || !admin {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAuth passes the request through with the user id in context when a
// valid token is present, and untouched otherwise. Guest checkout uses this.
func OptionalAuth(ts TokenVerifier) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("auth_token")
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			payload, err := ts.VerifyToken(cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUserID, payload.UserID)
			ctx = context.WithValue(ctx, contextKeyAdmin, payload.Admin)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated user id from the context
func UserID(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(contextKeyUserID).(uint64)
	return id, ok
}
