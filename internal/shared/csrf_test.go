package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-mfi/meridian-admin/internal/shared"
)

func TestEnsureTokenIsStable(t *testing.T) {
	sm := newManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	m := shared.NewCSRFManager("csrf-secret")
	first, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestVerifyToken(t *testing.T) {
	sm := newManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	m := shared.NewCSRFManager("csrf-secret")
	token, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)

	assert.NoError(t, m.VerifyToken(context.Background(), sess, token))
	assert.ErrorIs(t, m.VerifyToken(context.Background(), sess, "forged"), shared.ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken(context.Background(), sess, ""), shared.ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken(context.Background(), nil, token), shared.ErrCSRFTokenMissing)
}

func TestVerifyTokenWithoutSessionToken(t *testing.T) {
	sm := newManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	m := shared.NewCSRFManager("csrf-secret")
	assert.ErrorIs(t, m.VerifyToken(context.Background(), sess, "anything"), shared.ErrCSRFTokenMissing)
}
