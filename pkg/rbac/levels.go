// Package rbac resolves per-module permission levels for authenticated users.
//
// Permissions are granted through role assignments: an active assignment
// links a user to a role, the role carries permissions, and each permission
// names a module and an ordinal level. A user's effective level for a module
// is the maximum granted level across all of their roles.
package rbac

// Level is the ordinal permission level for a module
type Level int

const (
	LevelNone       Level = 0
	LevelView       Level = 1
	LevelCreate     Level = 2
	LevelEdit       Level = 3
	LevelAdminister Level = 4
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelView:
		return "view"
	case LevelCreate:
		return "create"
	case LevelEdit:
		return "edit"
	case LevelAdminister:
		return "administer"
	default:
		return "unknown"
	}
}

// Allows reports whether a granted level satisfies a required level
func (l Level) Allows(required Level) bool {
	return l >= required
}

// Module name constants as stored in the modulos catalog
const (
	ModuleDistritos            = "DISTRITOS"
	ModuleAutoridades          = "AUTORIDADES"
	ModuleMaterias             = "MATERIAS"
	ModuleMateriasTiposJuicios = "MATERIAS TIPOS JUICIOS"
	ModuleSentencias           = "SENTENCIAS"
	ModuleEdictos              = "EDICTOS"
	ModuleListasDeAcuerdos     = "LISTAS DE ACUERDOS"
	ModuleModulos              = "MODULOS"
	ModulePermisos             = "PERMISOS"
	ModuleRoles                = "ROLES"
	ModuleUsuarios             = "USUARIOS"
	ModuleUsuariosRoles        = "USUARIOS ROLES"
)
