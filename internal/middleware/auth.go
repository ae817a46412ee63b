// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"alcoholdb/internal/models"
	"alcoholdb/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
	// UserKey is the context key for the authenticated user.
	UserKey contextKey = "user"
)

// UserLookup loads the account behind a session.
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// LoadUser resolves the request's session token and stores the session
// and its user in the request context. Downstream handlers can access
// them via SessionFromCtx() and UserFromCtx(). This middleware does NOT
// enforce authentication.
func LoadUser(store *session.Store, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				// Log but do not block; treat as unauthenticated.
				slog.Warn("session lookup failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if data == nil {
				next.ServeHTTP(w, r)
				return
			}

			// The account is reloaded on every request so bans and role
			// changes take effect immediately.
			user, err := users.FindByID(r.Context(), data.UserID)
			if err != nil {
				slog.Error("session user lookup failed", "user_id", data.UserID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, data)
			ctx = context.WithValue(ctx, UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects unauthenticated requests with 401.
// Must be applied after LoadUser in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromCtx(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns 403 if the authenticated user is not an admin.
// Must be applied after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromCtx(r.Context())
		if user == nil || !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RejectBanned returns 403 for banned users on every method that can
// change state. Reads stay open.
func RejectBanned(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromCtx(r.Context())
		if user != nil && user.Banned && mutating(r.Method) {
			writeError(w, http.StatusForbidden, "account is banned")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded (user is not authenticated).
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// UserFromCtx returns the authenticated user, or nil.
func UserFromCtx(ctx context.Context) *models.User {
	u, _ := ctx.Value(UserKey).(*models.User)
	return u
}

func mutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// writeError writes the JSON error body shared with the handlers package.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
