package middleware

import (
	"net/http"
	"strings"

	pnet "courseboard/internal/platform/net"
)

// UserHeader is where the gateway places the authenticated user id
const UserHeader = "X-User-ID"

// UserContext copies the user id header onto the request context
// upstream auth is out of scope here; we only propagate identity
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid := strings.TrimSpace(r.Header.Get(UserHeader)); uid != "" {
			r = r.WithContext(pnet.WithUser(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}
