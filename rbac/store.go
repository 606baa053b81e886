package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserStore reads persisted roles from the users table.
type UserStore struct {
	db *pgxpool.Pool
}

// NewUserStore creates a Postgres-backed role store.
func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{db: db}
}

// UserRole returns the role recorded for userID, or an empty string when the
// user has no record.
func (s *UserStore) UserRole(ctx context.Context, userID int64) (string, error) {
	var role string
	err := s.db.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return role, nil
}
