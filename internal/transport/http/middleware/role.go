package middleware

import (
	"net/http"
	"slices"
)

// RequireRole admits an authenticated actor whose role is one of roles. It must
// run after Auth; without an actor on the context it answers 401.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			switch {
			case !ok:
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			case !slices.Contains(roles, actor.Role):
				writeJSONError(w, http.StatusForbidden, "role "+actor.Role+" may not perform this action")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
