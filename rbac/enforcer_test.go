package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/harborlight/center/backend/metrics"
)

func identityFor(userID int64, sessionRole any) IdentityFn {
	return func(*http.Request) (int64, any, bool) {
		return userID, sessionRole, true
	}
}

func noIdentity(*http.Request) (int64, any, bool) {
	return 0, nil, false
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func newTestEnforcer(identity IdentityFn, store RoleStore) *Enforcer {
	m := metrics.New(prometheus.NewRegistry())
	resolver := newTestResolver(store)
	return NewEnforcer(identity, resolver, m)
}

func TestAuthorizeNoIdentity(t *testing.T) {
	enforcer := newTestEnforcer(noIdentity, &fakeStore{})
	handler, called := okHandler()

	rec := httptest.NewRecorder()
	enforcer.Authorize(ResourceMeals, ActionRead)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called, "handler must not run on denial")
}

func TestAuthorizeUnresolvableRole(t *testing.T) {
	enforcer := newTestEnforcer(identityFor(1, "superuser"), &fakeStore{role: "owner"})
	handler, called := okHandler()

	rec := httptest.NewRecorder()
	enforcer.Authorize(ResourceMeals, ActionRead)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestAuthorizeGrantedRole(t *testing.T) {
	enforcer := newTestEnforcer(identityFor(1, nil), &fakeStore{role: "staff"})
	handler, called := okHandler()

	rec := httptest.NewRecorder()
	enforcer.Authorize(ResourceMeals, ActionRead)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *called)
}

func TestAuthorizeInsufficientRole(t *testing.T) {
	enforcer := newTestEnforcer(identityFor(1, nil), &fakeStore{role: "checkin"})
	handler, called := okHandler()

	rec := httptest.NewRecorder()
	enforcer.Authorize(ResourceDonations, ActionRead)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, *called)
}

// A staff member holds meals:read through the matrix but export endpoints are
// limited to admin and board. The matrix check alone denies staff export, and
// even a role that clears a matrix check is stopped by the allow-list layer.
func TestExportTwoLayerCheck(t *testing.T) {
	staffEnforcer := newTestEnforcer(identityFor(1, nil), &fakeStore{role: "staff"})

	handler, called := okHandler()
	gate := staffEnforcer.Authorize(ResourceMeals, ActionExport)(
		staffEnforcer.RequireRoles(ExportRoles...)(handler),
	)

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, *called)

	// The allow-list rejects independently of the matrix: staff passes a
	// guests:read matrix check but stays outside {admin, board}.
	handler2, called2 := okHandler()
	gate2 := staffEnforcer.Authorize(ResourceGuests, ActionRead)(
		staffEnforcer.RequireRoles(ExportRoles...)(handler2),
	)

	rec2 := httptest.NewRecorder()
	gate2.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/export", nil))
	assert.Equal(t, http.StatusForbidden, rec2.Code)
	assert.False(t, *called2)

	boardEnforcer := newTestEnforcer(identityFor(2, nil), &fakeStore{role: "board"})
	handler3, called3 := okHandler()
	gate3 := boardEnforcer.Authorize(ResourceMeals, ActionExport)(
		boardEnforcer.RequireRoles(ExportRoles...)(handler3),
	)

	rec3 := httptest.NewRecorder()
	gate3.ServeHTTP(rec3, httptest.NewRequest(http.MethodGet, "/export", nil))
	assert.Equal(t, http.StatusOK, rec3.Code)
	assert.True(t, *called3)
}

func TestRequireRolesWithoutResolvedRole(t *testing.T) {
	enforcer := newTestEnforcer(noIdentity, &fakeStore{})
	handler, called := okHandler()

	rec := httptest.NewRecorder()
	enforcer.RequireRoles(RoleAdmin)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestAuthorizeStoresRoleInContext(t *testing.T) {
	enforcer := newTestEnforcer(identityFor(1, nil), &fakeStore{role: "admin"})

	var seen Role
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	enforcer.Authorize(ResourceSettings, ActionUpdate)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, RoleAdmin, seen)
}

// The gate resolves the role before deciding; a session claim of admin does
// not override a persisted downgrade to checkin.
func TestAuthorizePersistedRoleOverridesSessionClaim(t *testing.T) {
	enforcer := newTestEnforcer(identityFor(1, "admin"), &fakeStore{role: "checkin"})
	handler, called := okHandler()

	rec := httptest.NewRecorder()
	enforcer.Authorize(ResourceSettings, ActionUpdate)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, *called)
}
