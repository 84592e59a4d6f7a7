package rbac

import (
	"context"
	"database/sql"
	"fmt"
)

// Store loads grant rows from the catalog tables
type Store struct {
	db *sql.DB
}

// NewStore creates a grant store backed by the given database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GrantsForUser returns every permission row reachable from the user
// through an active role assignment. Assignments, roles, and permissions
// are all filtered to active status; the module row only supplies the name.
func (s *Store) GrantsForUser(ctx context.Context, userID int64) ([]Grant, error) {
	query := `
		SELECT m.nombre, p.nivel
		FROM usuarios_roles ur
		JOIN roles r ON r.id = ur.rol_id AND r.estatus = 'A'
		JOIN permisos p ON p.rol_id = r.id AND p.estatus = 'A'
		JOIN modulos m ON m.id = p.modulo_id
		WHERE ur.usuario_id = $1 AND ur.estatus = 'A'`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query grants for user %d: %w", userID, err)
	}
	defer rows.Close()

	var grants []Grant
	for rows.Next() {
		var g Grant
		var nivel int
		if err := rows.Scan(&g.Module, &nivel); err != nil {
			return nil, fmt.Errorf("failed to scan grant row: %w", err)
		}
		g.Level = Level(nivel)
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate grant rows: %w", err)
	}
	return grants, nil
}
