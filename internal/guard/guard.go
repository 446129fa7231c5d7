// Package guard gates routes on the authentication snapshot derived by the
// session bootstrapper. Guards never render content themselves; they either
// pass the request through or redirect.
package guard

import (
	"net/http"

	"github.com/meridian-mfi/meridian-admin/internal/session"
)

const (
	loginPath        = "/login"
	unauthorizedPath = "/unauthorized"
)

// RequireAuth admits any authenticated visitor. A visitor with neither a
// cached user nor an access token is sent to the login screen. Mount it
// outside RequireRole so anonymous visitors never learn which routes are
// role-gated.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := session.StateFromContext(r.Context())
		if st.User == nil && st.AccessToken == "" {
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole admits only users whose role is in the given set. No user at
// all goes to login; a user with the wrong role goes to the unauthorized
// page. Roles outside the known enumeration fail every check.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if role == "" {
			continue
		}
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := session.StateFromContext(r.Context())
			if st.User == nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			if _, ok := allowed[st.User.Role]; !ok {
				http.Redirect(w, r, unauthorizedPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
