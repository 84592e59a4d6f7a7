package auth

import (
	"sync"

	"github.com/pjecz/hercules-api/pkg/rbac"
)

// Identity is an authenticated user together with their grant rows.
// The effective permission map is computed lazily and memoized for the
// life of the instance; a fresh Identity is resolved per request, so the
// memo never outlives the request that built it.
type Identity struct {
	ID              int64  `json:"id"`
	Email           string `json:"email"`
	Nombres         string `json:"nombres"`
	ApellidoPaterno string `json:"apellido_paterno"`
	ApellidoMaterno string `json:"apellido_materno"`
	Puesto          string `json:"puesto"`
	AutoridadID     int64  `json:"autoridad_id"`
	PasswordHash    string `json:"-"`

	grants    []rbac.Grant
	permsOnce sync.Once
	perms     map[string]rbac.Level
}

// SetGrants attaches the grant rows the permission map is folded from
func (i *Identity) SetGrants(grants []rbac.Grant) {
	i.grants = grants
}

// Permissions returns the effective per-module level map, computing it
// on first use
func (i *Identity) Permissions() map[string]rbac.Level {
	i.permsOnce.Do(func() {
		i.perms = rbac.Resolve(i.grants)
	})
	return i.perms
}

// Can reports whether the identity holds at least the required level for
// the module. Unknown modules resolve to level none.
func (i *Identity) Can(module string, required rbac.Level) bool {
	return i.Permissions()[module].Allows(required)
}
