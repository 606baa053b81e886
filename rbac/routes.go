package rbac

import "strings"

// LoginPath is where unauthenticated visitors land.
const LoginPath = "/login"

// defaultLandingPath is the shared post-login landing page for every role.
const defaultLandingPath = "/"

// RoutePolicy lists the frontend path prefixes each role may navigate to.
// Matching is a plain string prefix: /guests also admits /guests-archive.
// That looseness is accepted policy for now; none of the configured prefixes
// collide with a sibling page, and tightening to segment-aware matching is a
// product decision, not a bug fix.
var RoutePolicy = map[Role][]string{
	RoleAdmin:   {"/admin", "/guests", "/meals", "/services", "/donations", "/reports", "/settings"},
	RoleBoard:   {"/guests", "/meals", "/services", "/donations", "/reports"},
	RoleStaff:   {"/guests", "/meals", "/services", "/donations"},
	RoleCheckin: {"/checkin", "/guests", "/meals"},
}

// HasAccess reports whether role may navigate to pathname. The zero Role is
// always denied.
func HasAccess(role Role, pathname string) bool {
	if role == "" {
		return false
	}
	for _, prefix := range RoutePolicy[role] {
		if strings.HasPrefix(pathname, prefix) {
			return true
		}
	}
	return false
}

// AllowedPaths returns a copy of the path prefixes configured for role, so
// callers can ship the list to the frontend without aliasing the policy.
func AllowedPaths(role Role) []string {
	prefixes := RoutePolicy[role]
	if len(prefixes) == 0 {
		return nil
	}
	out := make([]string, len(prefixes))
	copy(out, prefixes)
	return out
}

// DefaultPath returns the canonical landing path for role. This supports
// post-authentication redirects and is not an authorization decision.
func DefaultPath(role Role) string {
	if role == "" {
		return LoginPath
	}
	return defaultLandingPath
}
