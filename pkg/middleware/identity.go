package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

type contextKeyType string

const (
	userIDKey contextKeyType = "user_id"
	roleKey   contextKeyType = "role"
)

// Header names set by the API gateway after it has authenticated the caller.
// The service trusts these headers; it never sees raw credentials.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Identity reads the gateway-injected identity headers and stores them in the
// request context. Requests without an X-User-ID header pass through
// anonymously; handlers that need a caller use RequireUser or RequireRole.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID := r.Header.Get(HeaderUserID); userID != "" {
				ctx = context.WithValue(ctx, userIDKey, userID)
			}
			if role := r.Header.Get(HeaderUserRole); role != "" {
				ctx = context.WithValue(ctx, roleKey, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests that carry no user identity.
func RequireUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == "" {
				writeIdentityError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user identity")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole checks that the caller has one of the required roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if _, ok := roleSet[role]; !ok {
				writeIdentityError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// RoleFromContext extracts the user role from the request context.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}

// ContextWithIdentity returns a context carrying the given user ID and role.
// Intended for tests and internal callers.
func ContextWithIdentity(ctx context.Context, userID, role string) context.Context {
	if userID != "" {
		ctx = context.WithValue(ctx, userIDKey, userID)
	}
	if role != "" {
		ctx = context.WithValue(ctx, roleKey, role)
	}
	return ctx
}

func writeIdentityError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
