package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-mfi/meridian-admin/internal/shared"
	_ "github.com/meridian-mfi/meridian-admin/testing"
)

func newManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test_session" {
			return c
		}
	}
	t.Fatalf("no session cookie set")
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("color", "green")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil), sess))
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "green", loaded.Get("color"))

	loaded.Delete("color")
	rec = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, loaded))

	again, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, again.Get("color"))
}

func TestSessionDestroy(t *testing.T) {
	sm := newManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("k", "v")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil), sess))
	cookie := sessionCookie(t, rec)

	sm.Destroy(sess)
	rec = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil), sess))
	expired := sessionCookie(t, rec)
	assert.Equal(t, -1, expired.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, loaded.Get("k"))
}

func TestFlashesSurviveOneCommit(t *testing.T) {
	sm := newManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "first"})
	sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "second"})

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil), sess))
	cookie := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)

	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "first", flash.Message)
	flash = loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "second", flash.Message)
	assert.Nil(t, loaded.PopFlash())
}

func TestSessionContextHelpers(t *testing.T) {
	sm := newManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	ctx := shared.ContextWithSession(context.Background(), sess)
	assert.Same(t, sess, shared.SessionFromContext(ctx))
	assert.Nil(t, shared.SessionFromContext(context.Background()))
}
