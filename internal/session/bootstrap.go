package session

import (
	"log/slog"
	"net/http"

	"github.com/meridian-mfi/meridian-admin/internal/shared"
	"github.com/meridian-mfi/meridian-admin/internal/token"
)

// Bootstrap re-establishes authentication after a page reload. When the
// session still holds an access token but no cached profile, it fetches the
// profile with that token; if the backend rejects it, both tokens are cleared
// and the visitor lands on the login screen with nothing to go back to.
//
// A session whose profile is already cached goes straight through with no
// network call. The derived State is placed in the request context for the
// guards and page handlers downstream.
func (m *Manager) Bootstrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}

		store := token.NewStore(sess)
		if tok, ok := store.AccessToken(); ok && sess.Get(userKey) == "" {
			user := m.FetchUserProfile(r.Context(), tok)
			m.observe("bootstrap", user != nil)
			if user == nil {
				// Network and 401/403 failures read the same: the
				// session is over, the user signs in again.
				m.Logout(sess)
				sess.Set(errorKey, "Your session has expired. Please sign in again.")
				m.logger.Info("bootstrap profile fetch failed", slog.String("path", r.URL.Path))
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			m.cacheUser(sess, user)
		}

		ctx := ContextWithState(r.Context(), m.StateFor(sess))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
