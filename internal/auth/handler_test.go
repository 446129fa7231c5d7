package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-mfi/meridian-admin/internal/apiclient"
	"github.com/meridian-mfi/meridian-admin/internal/auth"
	"github.com/meridian-mfi/meridian-admin/internal/session"
	"github.com/meridian-mfi/meridian-admin/internal/shared"
	"github.com/meridian-mfi/meridian-admin/internal/view"
	_ "github.com/meridian-mfi/meridian-admin/testing"
)

type harness struct {
	handler  http.Handler
	sessions *session.Manager
	manager  *shared.SessionManager
}

func newHarness(t *testing.T, backend http.Handler) *harness {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sm := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)

	engine, err := view.NewEngine()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := apiclient.New(srv.URL, 5*time.Second, logger)
	sessions := session.NewManager(api, logger, nil)
	h := auth.NewHandler(logger, sessions, api, engine, shared.NewCSRFManager("csrf-secret"))

	r := chi.NewRouter()
	h.MountRoutes(r)
	return &harness{handler: r, sessions: sessions, manager: sm}
}

func (h *harness) newSession(t *testing.T) *shared.Session {
	t.Helper()
	sess, err := h.manager.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	return sess
}

func (h *harness) do(t *testing.T, sess *shared.Session, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	ctx = session.ContextWithState(ctx, h.sessions.StateFor(sess))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func loginBackend() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		w.Header().Set("Content-Type", "application/json")
		if creds["password"] != "correct-horse" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"No active account found with the given credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access":  "acc-1",
			"refresh": "ref-1",
			"user":    map[string]any{"id": 1, "username": creds["username"], "role": "TELLER"},
		})
	})
	mux.HandleFunc("/auth/set-password/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	return mux
}

func TestShowLoginRendersForm(t *testing.T) {
	h := newHarness(t, loginBackend())
	rec := h.do(t, h.newSession(t), http.MethodGet, "/login", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="username"`)
	assert.Contains(t, body, `name="csrf_token"`)
}

func TestShowLoginRedirectsWhenSignedIn(t *testing.T) {
	h := newHarness(t, loginBackend())
	sess := h.newSession(t)
	require.True(t, h.sessions.Login(context.Background(), sess, "kofi", "correct-horse").Success)

	rec := h.do(t, sess, http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestHandleLoginSuccess(t *testing.T) {
	h := newHarness(t, loginBackend())
	sess := h.newSession(t)

	rec := h.do(t, sess, http.MethodPost, "/login", url.Values{
		"username": {"kofi"},
		"password": {"correct-horse"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	st := h.sessions.StateFor(sess)
	require.NotNil(t, st.User)
	assert.Equal(t, "TELLER", st.User.Role)
}

func TestHandleLoginBadCredentials(t *testing.T) {
	h := newHarness(t, loginBackend())
	sess := h.newSession(t)

	rec := h.do(t, sess, http.MethodPost, "/login", url.Values{
		"username": {"kofi"},
		"password": {"wrong"},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "No active account found with the given credentials")
	// The submitted username stays in the form, the password does not.
	assert.Contains(t, rec.Body.String(), `value="kofi"`)
	assert.Nil(t, h.sessions.StateFor(sess).User)
}

func TestHandleLoginMissingFields(t *testing.T) {
	h := newHarness(t, loginBackend())
	rec := h.do(t, h.newSession(t), http.MethodPost, "/login", url.Values{})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "This field is required")
}

func TestHandleLogout(t *testing.T) {
	h := newHarness(t, loginBackend())
	sess := h.newSession(t)
	require.True(t, h.sessions.Login(context.Background(), sess, "kofi", "correct-horse").Success)

	rec := h.do(t, sess, http.MethodPost, "/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Nil(t, h.sessions.StateFor(sess).User)
}

func TestSetPasswordValidation(t *testing.T) {
	h := newHarness(t, loginBackend())
	sess := h.newSession(t)

	rec := h.do(t, sess, http.MethodPost, "/set-password", url.Values{
		"token":    {"invite-token"},
		"password": {"short"},
		"confirm":  {"short"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password must be at least 8 characters")

	rec = h.do(t, sess, http.MethodPost, "/set-password", url.Values{
		"token":    {"invite-token"},
		"password": {"long-enough-pass"},
		"confirm":  {"different-pass"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match")

	rec = h.do(t, sess, http.MethodPost, "/set-password", url.Values{
		"token":    {"invite-token"},
		"password": {"long-enough-pass"},
		"confirm":  {"long-enough-pass"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestShowUnauthorized(t *testing.T) {
	h := newHarness(t, loginBackend())
	rec := h.do(t, h.newSession(t), http.MethodGet, "/unauthorized", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
