// Package session owns who is signed in for each browser session: the token
// pair, the cached profile, and the four operations that may change them.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-mfi/meridian-admin/internal/apiclient"
	"github.com/meridian-mfi/meridian-admin/internal/shared"
	"github.com/meridian-mfi/meridian-admin/internal/token"
)

// Status is the explicit authentication state machine. The tagged form rules
// out impossible combinations like a loading flag alongside a stale user.
type Status string

const (
	StatusAnonymous      Status = "anonymous"
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
	StatusErrored        Status = "errored"
)

// User is the profile returned by the backend. The gate only ever inspects
// Role; the rest is carried for display.
type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Role          string `json:"role"`
	Branch        int64  `json:"branch"`
	BranchDisplay string `json:"branch_display"`
}

// State is a read-only snapshot of one browser session's authentication.
type State struct {
	Status      Status
	User        *User
	AccessToken string
	Error       string
}

// Authenticated reports whether a signed-in user is present.
func (s State) Authenticated() bool {
	return s.User != nil
}

// LoginResult is what Login hands back to the login form. Bad credentials are
// an expected outcome, not a Go error.
type LoginResult struct {
	Success bool
	Error   string
}

const (
	userKey  = "auth_user"
	errorKey = "auth_error"
)

// AuthMetrics counts auth operation outcomes. Satisfied by
// observability.Metrics; nil disables recording.
type AuthMetrics interface {
	ObserveAuth(operation, outcome string)
}

// Manager performs the session operations against the backend auth API.
type Manager struct {
	api       *apiclient.Client
	logger    *slog.Logger
	metrics   AuthMetrics
	refreshes singleflight.Group
}

// NewManager constructs a Manager over the unauthenticated API client.
func NewManager(api *apiclient.Client, logger *slog.Logger, metrics AuthMetrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{api: api, logger: logger, metrics: metrics}
}

func (m *Manager) observe(operation string, ok bool) {
	if m.metrics == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.metrics.ObserveAuth(operation, outcome)
}

// StateFor derives the current snapshot from the session contents.
func (m *Manager) StateFor(sess *shared.Session) State {
	st := State{Status: StatusAnonymous}
	if sess == nil {
		return st
	}
	store := token.NewStore(sess)
	if tok, ok := store.AccessToken(); ok {
		st.AccessToken = tok
	}
	if raw := sess.Get(userKey); raw != "" {
		var u User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			st.User = &u
			st.Status = StatusAuthenticated
		} else {
			m.logger.Warn("corrupt cached profile", slog.Any("error", err))
		}
	}
	if st.User == nil {
		if msg := sess.Get(errorKey); msg != "" {
			st.Status = StatusErrored
			st.Error = msg
		}
	}
	return st
}

type loginResponse struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    json.RawMessage `json:"user"`
}

// Login exchanges credentials for a token pair. On success the pair and the
// profile land in the session together; on failure nothing is touched, so a
// rejected login can never leave half a session behind.
func (m *Manager) Login(ctx context.Context, sess *shared.Session, username, password string) LoginResult {
	var resp loginResponse
	err := m.api.Post(ctx, "/auth/login/", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		msg := "Login failed"
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && apiErr.Detail != "" && apiErr.Detail != "Request failed" {
			msg = apiErr.Detail
		} else {
			m.logger.Warn("login request failed", slog.Any("error", err))
		}
		m.observe("login", false)
		return LoginResult{Success: false, Error: msg}
	}
	if resp.Access == "" || resp.Refresh == "" {
		m.logger.Error("login response missing tokens", slog.String("username", username))
		return LoginResult{Success: false, Error: "Login failed"}
	}

	var u User
	if err := json.Unmarshal(resp.User, &u); err != nil {
		m.logger.Error("login response user payload", slog.Any("error", err))
		return LoginResult{Success: false, Error: "Login failed"}
	}

	token.NewStore(sess).SetPair(resp.Access, resp.Refresh)
	m.cacheUser(sess, &u)
	sess.Delete(errorKey)
	m.observe("login", true)
	return LoginResult{Success: true}
}

// Logout clears the profile and both tokens. Calling it on an anonymous
// session is a no-op.
func (m *Manager) Logout(sess *shared.Session) {
	if sess == nil {
		return
	}
	token.NewStore(sess).Clear()
	sess.Delete(userKey)
	sess.Delete(errorKey)
}

// RefreshAccessToken trades the refresh token for a new access token.
// Outcome is all or nothing: either the new token is in both the session
// state and the store, or the whole session is torn down and "" returned.
// Concurrent requests for the same browser session share one refresh call.
func (m *Manager) RefreshAccessToken(ctx context.Context, sess *shared.Session) string {
	if sess == nil {
		return ""
	}
	store := token.NewStore(sess)
	refresh, ok := store.RefreshToken()
	if !ok {
		m.Logout(sess)
		return ""
	}

	v, _, _ := m.refreshes.Do(sess.ID, func() (any, error) {
		var resp struct {
			Access string `json:"access"`
		}
		if err := m.api.Post(ctx, "/auth/refresh/", map[string]string{"refresh": refresh}, &resp); err != nil {
			m.logger.Info("token refresh rejected", slog.Any("error", err))
			return "", nil
		}
		return resp.Access, nil
	})

	fresh, _ := v.(string)
	if fresh == "" {
		m.Logout(sess)
		m.observe("refresh", false)
		return ""
	}
	store.Set(token.AccessKey, fresh)
	m.observe("refresh", true)
	return fresh
}

// FetchUserProfile loads the profile for an explicit token, independent of
// whatever the session holds. It never clears tokens; deciding what a nil
// result means is the caller's job.
func (m *Manager) FetchUserProfile(ctx context.Context, tok string) *User {
	var u User
	client := m.api.WithAuth(staticToken(tok), nil)
	if err := client.Get(ctx, "/auth/me/", &u); err != nil {
		m.logger.Warn("fetch user profile", slog.Any("error", err))
		return nil
	}
	return &u
}

// ClientFor binds the API client to one browser session so every data call a
// page makes carries that session's bearer token and refresh behavior.
func (m *Manager) ClientFor(sess *shared.Session) *apiclient.Client {
	return m.api.WithAuth(sessionTokens{sess: sess}, sessionRefresher{m: m, sess: sess})
}

func (m *Manager) cacheUser(sess *shared.Session, u *User) {
	raw, err := json.Marshal(u)
	if err != nil {
		m.logger.Error("cache profile", slog.Any("error", err))
		return
	}
	sess.Set(userKey, string(raw))
}

type staticToken string

func (t staticToken) AccessToken(context.Context) (string, bool) {
	return string(t), t != ""
}

type sessionTokens struct {
	sess *shared.Session
}

func (s sessionTokens) AccessToken(context.Context) (string, bool) {
	return token.NewStore(s.sess).AccessToken()
}

type sessionRefresher struct {
	m    *Manager
	sess *shared.Session
}

func (r sessionRefresher) RefreshAccessToken(ctx context.Context) string {
	return r.m.RefreshAccessToken(ctx, r.sess)
}
