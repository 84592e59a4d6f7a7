package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pjecz/hercules-api/pkg/rbac"
)

// UserStore resolves identities from persistent storage
type UserStore interface {
	// GetActiveUserByEmail returns the identity for an active user,
	// ErrUserNotFound when no row exists, and ErrUserDeleted when the
	// row is soft-deleted
	GetActiveUserByEmail(ctx context.Context, email string) (*Identity, error)
}

// SQLUserStore loads identities and their grants from the catalog tables
type SQLUserStore struct {
	db     *sql.DB
	grants *rbac.Store
}

// NewSQLUserStore creates a user store backed by the given database
func NewSQLUserStore(db *sql.DB) *SQLUserStore {
	return &SQLUserStore{
		db:     db,
		grants: rbac.NewStore(db),
	}
}

// GetActiveUserByEmail implements UserStore
func (s *SQLUserStore) GetActiveUserByEmail(ctx context.Context, email string) (*Identity, error) {
	query := `
		SELECT id, email, nombres, apellido_paterno, apellido_materno,
		       puesto, autoridad_id, contrasena, estatus
		FROM usuarios
		WHERE email = $1`

	var identity Identity
	var estatus string
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&identity.ID,
		&identity.Email,
		&identity.Nombres,
		&identity.ApellidoPaterno,
		&identity.ApellidoMaterno,
		&identity.Puesto,
		&identity.AutoridadID,
		&identity.PasswordHash,
		&estatus,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user %s: %w", email, err)
	}

	if estatus != "A" {
		return nil, ErrUserDeleted
	}

	grants, err := s.grants.GrantsForUser(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	identity.SetGrants(grants)

	return &identity, nil
}
