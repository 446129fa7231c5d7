package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-mfi/meridian-admin/internal/session"
	"github.com/meridian-mfi/meridian-admin/internal/shared"
	"github.com/meridian-mfi/meridian-admin/internal/token"
)

func bootstrapBackend(t *testing.T, profileCalls *atomic.Int32) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me/", func(w http.ResponseWriter, r *http.Request) {
		profileCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer acc-valid" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Given token not valid"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(testUser)
	})
	return mux
}

func runBootstrap(t *testing.T, mgr *session.Manager, sess *shared.Session) (*httptest.ResponseRecorder, session.State) {
	t.Helper()
	var seen session.State
	handler := mgr.Bootstrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = session.StateFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func TestBootstrapAnonymousSession(t *testing.T) {
	var profileCalls atomic.Int32
	sess := newSession(t)
	mgr := newManager(t, bootstrapBackend(t, &profileCalls))

	rec, seen := runBootstrap(t, mgr, sess)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.StatusAnonymous, seen.Status)
	assert.Equal(t, int32(0), profileCalls.Load(), "no token means no profile fetch")
}

func TestBootstrapRecoversProfile(t *testing.T) {
	var profileCalls atomic.Int32
	sess := newSession(t)
	mgr := newManager(t, bootstrapBackend(t, &profileCalls))
	token.NewStore(sess).SetPair("acc-valid", "ref-valid")

	rec, seen := runBootstrap(t, mgr, sess)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen.User)
	assert.Equal(t, "ama.owusu", seen.User.Username)
	assert.Equal(t, int32(1), profileCalls.Load())

	// The profile is now cached; further requests stay off the network.
	rec, seen = runBootstrap(t, mgr, sess)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen.User)
	assert.Equal(t, int32(1), profileCalls.Load())
}

func TestBootstrapRejectedTokenClearsSession(t *testing.T) {
	var profileCalls atomic.Int32
	sess := newSession(t)
	mgr := newManager(t, bootstrapBackend(t, &profileCalls))
	token.NewStore(sess).SetPair("acc-revoked", "ref-revoked")

	rec, _ := runBootstrap(t, mgr, sess)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	if _, ok := token.NewStore(sess).AccessToken(); ok {
		t.Fatalf("rejected token survived bootstrap")
	}
	if _, ok := token.NewStore(sess).RefreshToken(); ok {
		t.Fatalf("refresh token survived bootstrap")
	}

	st := mgr.StateFor(sess)
	assert.Equal(t, session.StatusErrored, st.Status)
	assert.Equal(t, "Your session has expired. Please sign in again.", st.Error)
}

func TestBootstrapSkipsCachedProfile(t *testing.T) {
	var profileCalls atomic.Int32
	sess := newSession(t)
	mgr := newManager(t, bootstrapBackend(t, &profileCalls))

	// A freshly signed-in session already carries the profile.
	loginMgr := newManager(t, authBackend(t))
	require.True(t, loginMgr.Login(context.Background(), sess, "ama.owusu", "correct-horse").Success)

	_, seen := runBootstrap(t, mgr, sess)
	require.NotNil(t, seen.User)
	assert.Equal(t, int32(0), profileCalls.Load())
}

func TestBootstrapWithoutSession(t *testing.T) {
	var profileCalls atomic.Int32
	mgr := newManager(t, bootstrapBackend(t, &profileCalls))

	handler := mgr.Bootstrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
