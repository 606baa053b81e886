package rbac

import (
	"context"
	"net/http"

	"github.com/harborlight/center/backend/httpx"
	"github.com/harborlight/center/backend/metrics"
)

// IdentityFn extracts the authenticated actor from the request, if any. The
// second return value is the role claimed in session metadata, passed through
// untyped because session payloads are not trusted.
type IdentityFn func(r *http.Request) (userID int64, sessionRole any, ok bool)

type contextKey string

const roleKey contextKey = "resolvedRole"

// WithRole stores the resolved role for the current request.
func WithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

// RoleFromContext returns the role resolved by an upstream Authorize
// middleware, or the zero Role.
func RoleFromContext(ctx context.Context) Role {
	role, _ := ctx.Value(roleKey).(Role)
	return role
}

// Enforcer applies permission matrix decisions at HTTP boundaries. Every
// privileged route is gated here before any handler or database work runs.
type Enforcer struct {
	identity IdentityFn
	resolver *Resolver
	metrics  *metrics.Metrics
}

// NewEnforcer constructs an enforcer with the provided identity extractor and
// role resolver.
func NewEnforcer(identity IdentityFn, resolver *Resolver, m *metrics.Metrics) *Enforcer {
	return &Enforcer{identity: identity, resolver: resolver, metrics: m}
}

// Authorize resolves the caller's effective role and ensures it holds action
// on resource. Callers with no identity or no resolvable role get 401;
// resolved callers without the grant get 403. The resolved role is stored on
// the request context for downstream checks.
func (e *Enforcer) Authorize(resource Resource, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, sessionRole, ok := e.identity(r)
			if !ok {
				e.count(resource, action, metrics.OutcomeDenyUnauthorized)
				httpx.Unauthorized(w)
				return
			}

			role := e.resolver.Resolve(r.Context(), userID, sessionRole)
			if role == "" {
				e.count(resource, action, metrics.OutcomeDenyUnauthorized)
				httpx.Unauthorized(w)
				return
			}

			if !HasPermission(role, resource, action) {
				e.count(resource, action, metrics.OutcomeDenyForbidden)
				httpx.Forbidden(w)
				return
			}

			e.count(resource, action, metrics.OutcomeAllow)
			if action == ActionExport {
				e.metrics.ExportsTotal.WithLabelValues(string(resource)).Inc()
			}
			next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), role)))
		})
	}
}

// RequireRoles layers an explicit role allow-list on top of the matrix check
// for operations restricted beyond their generic grant, such as exports being
// limited to admin and board. It must run after Authorize, which resolves the
// role; both checks have to pass.
func (e *Enforcer) RequireRoles(allowed ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" {
				httpx.Unauthorized(w)
				return
			}
			for _, candidate := range allowed {
				if role == candidate {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.Forbidden(w)
		})
	}
}

func (e *Enforcer) count(resource Resource, action Action, outcome string) {
	e.metrics.AuthzDecisions.WithLabelValues(string(resource), string(action), outcome).Inc()
}
