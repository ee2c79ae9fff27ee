package auth

import (
	"net/http"
	"strings"
)

// IsModeratorRole reports whether a role claim grants moderation capability.
func IsModeratorRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "admin", "moderator":
		return true
	}
	return false
}

// RequireModerator allows the request only if RequireUser already injected a
// moderation-capable role into context.
func RequireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := RoleFromContext(r.Context())
		if !IsModeratorRole(role) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
