package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborlight/center/backend/metrics"
	"github.com/harborlight/center/backend/rbac"
)

type staticRoleStore struct {
	role string
	err  error
}

func (s *staticRoleStore) UserRole(context.Context, int64) (string, error) {
	return s.role, s.err
}

func newTestHandler(t *testing.T, store rbac.RoleStore) *Handler {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	resolver := rbac.NewResolver(store, log, metrics.New(prometheus.NewRegistry()))
	m, err := NewSessionManager("test-secret", false)
	require.NoError(t, err)
	return NewHandler(m, resolver)
}

func TestSessionInfoUnauthenticated(t *testing.T) {
	h := newTestHandler(t, &staticRoleStore{})

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionInfoReportsResolvedRoleAndNavigation(t *testing.T) {
	h := newTestHandler(t, &staticRoleStore{role: "checkin"})

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	// The persisted record says checkin even though the token claims staff.
	ctx := context.WithValue(req.Context(), claimsKey, &Claims{UserID: 5, Email: "sam@example.org", Role: "staff"})

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		UserID       int64    `json:"user_id"`
		Role         string   `json:"role"`
		AllowedPaths []string `json:"allowed_paths"`
		DefaultPath  string   `json:"default_path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, int64(5), resp.UserID)
	assert.Equal(t, "checkin", resp.Role)
	assert.Equal(t, rbac.AllowedPaths(rbac.RoleCheckin), resp.AllowedPaths)
	assert.Equal(t, "/", resp.DefaultPath)
}

func TestLogoutClearsSession(t *testing.T) {
	h := newTestHandler(t, &staticRoleStore{})

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
