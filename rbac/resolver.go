package rbac

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/harborlight/center/backend/metrics"
)

// RoleStore looks up the persisted role for a user. Implementations return
// an empty string when no record exists; errors indicate the lookup itself
// failed.
type RoleStore interface {
	UserRole(ctx context.Context, userID int64) (string, error)
}

// Resolver derives the effective role for a request from two sources: the
// role recorded on the persisted user record and the role claimed in session
// metadata. The persisted record wins because administrators can correct it;
// the session claim is a fallback populated at token issuance and may be
// stale.
type Resolver struct {
	store   RoleStore
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewResolver constructs a role resolver over the given store.
func NewResolver(store RoleStore, log logrus.FieldLogger, m *metrics.Metrics) *Resolver {
	return &Resolver{store: store, log: log, metrics: m}
}

// Resolve returns the effective role for userID, or the zero Role when none
// can be determined. It never returns an error: a store fault is logged,
// counted, and degraded to the session-claimed role so that a transient
// database problem cannot lock out or over-privilege anyone. The result is
// authoritative for the current request only; nothing is cached.
func (r *Resolver) Resolve(ctx context.Context, userID int64, sessionRole any) Role {
	fallback, _ := ParseRoleValue(sessionRole)

	raw, err := r.store.UserRole(ctx, userID)
	if err != nil {
		r.log.WithError(err).WithField("user_id", userID).
			Warn("persisted role lookup failed, falling back to session role")
		r.metrics.RoleStoreFaults.Inc()
		return fallback
	}

	if persisted, ok := ParseRole(raw); ok {
		return persisted
	}
	return fallback
}
