package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAccessDeniesUnresolved(t *testing.T) {
	for _, path := range []string{"/", "/guests", "/admin", "/login", ""} {
		assert.False(t, HasAccess("", path), "unresolved role must be denied %q", path)
	}
}

func TestHasAccessPerRolePrefixes(t *testing.T) {
	for role, prefixes := range RoutePolicy {
		for _, prefix := range prefixes {
			assert.True(t, HasAccess(role, prefix), "%s should access its own prefix %s", role, prefix)
			assert.True(t, HasAccess(role, prefix+"/123"), "%s should access nested path under %s", role, prefix)
		}
	}

	assert.False(t, HasAccess(RoleCheckin, "/donations"))
	assert.False(t, HasAccess(RoleCheckin, "/settings"))
	assert.False(t, HasAccess(RoleStaff, "/admin"))
	assert.False(t, HasAccess(RoleStaff, "/settings"))
	assert.False(t, HasAccess(RoleBoard, "/admin"))
	assert.False(t, HasAccess(RoleBoard, "/settings"))
}

// Prefix matching is deliberately segment-agnostic; a sibling page sharing a
// configured prefix is admitted. This pins the documented looseness so a
// future tightening shows up as a test change, not a silent behavior shift.
func TestHasAccessPrefixLooseness(t *testing.T) {
	assert.True(t, HasAccess(RoleStaff, "/guests-archive"))
	assert.True(t, HasAccess(RoleAdmin, "/admin-tools"))
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, LoginPath, DefaultPath(""))
	for _, role := range Roles {
		assert.Equal(t, "/", DefaultPath(role))
	}
}

func TestAllowedPathsReturnsCopy(t *testing.T) {
	paths := AllowedPaths(RoleCheckin)
	assert.Equal(t, RoutePolicy[RoleCheckin], paths)

	paths[0] = "/mutated"
	assert.NotEqual(t, paths[0], RoutePolicy[RoleCheckin][0])

	assert.Nil(t, AllowedPaths(""))
}
