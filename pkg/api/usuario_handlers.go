package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/pjecz/hercules-api/pkg/auth"
	"github.com/pjecz/hercules-api/pkg/httputil"
	"github.com/pjecz/hercules-api/pkg/middleware"
	"github.com/pjecz/hercules-api/pkg/observability"
	"github.com/pjecz/hercules-api/pkg/rbac"
)

// UsuarioHandlers serves user accounts and their role assignments
type UsuarioHandlers struct {
	db      *sql.DB
	authz   *middleware.AuthMiddleware
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewUsuarioHandlers creates the user handlers
func NewUsuarioHandlers(db *sql.DB, authz *middleware.AuthMiddleware, logger *observability.Logger, metrics *observability.Metrics) *UsuarioHandlers {
	return &UsuarioHandlers{db: db, authz: authz, logger: logger, metrics: metrics}
}

// RegisterRoutes registers the user and role assignment routes
func (h *UsuarioHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/usuarios", h.authz.RequirePermission(rbac.ModuleUsuarios, rbac.LevelView, h.list)).Methods("GET")
	router.HandleFunc("/usuarios/{email}", h.authz.RequirePermission(rbac.ModuleUsuarios, rbac.LevelView, h.get)).Methods("GET")
	router.HandleFunc("/usuarios_roles", h.authz.RequirePermission(rbac.ModuleUsuariosRoles, rbac.LevelView, h.listRoles)).Methods("GET")
}

const usuarioColumns = `u.id, u.email, u.nombres, u.apellido_paterno, u.apellido_materno,
	u.puesto, a.clave`

const usuarioFrom = ` FROM usuarios u JOIN autoridades a ON a.id = u.autoridad_id`

func (h *UsuarioHandlers) list(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := httputil.ParsePaginationOrError(w, r)
	if !ok {
		return
	}

	conditions := []string{"u.estatus = 'A'"}
	var args []interface{}
	if raw := httputil.ParseQueryString(r, "autoridad_clave", ""); raw != "" {
		clave, err := safeClave(raw)
		if err != nil {
			httputil.WriteValidationError(w, err.Error())
			return
		}
		args = append(args, clave)
		conditions = append(conditions, fmt.Sprintf("a.clave = $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	start := time.Now()
	var total int64
	if err := h.db.QueryRowContext(r.Context(),
		"SELECT COUNT(*)"+usuarioFrom+where, args...).Scan(&total); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "usuarios", "count", err)
		return
	}

	query := "SELECT " + usuarioColumns + usuarioFrom + where +
		fmt.Sprintf(" ORDER BY u.email LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := h.db.QueryContext(r.Context(), query, append(args, limit, offset)...)
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "usuarios", "list", err)
		return
	}
	defer rows.Close()

	items := make([]UsuarioOut, 0)
	for rows.Next() {
		var u UsuarioOut
		if err := rows.Scan(&u.ID, &u.Email, &u.Nombres, &u.ApellidoPaterno,
			&u.ApellidoMaterno, &u.Puesto, &u.AutoridadClave); err != nil {
			writeQueryError(w, r, h.logger, h.metrics, "usuarios", "list", err)
			return
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "usuarios", "list", err)
		return
	}
	observeQuery(h.metrics, "usuarios", "list", start)

	httputil.WriteList(w, "Listado de usuarios", items, total, limit, offset)
}

func (h *UsuarioHandlers) get(w http.ResponseWriter, r *http.Request) {
	raw, ok := httputil.ParsePathStringOrError(w, r, "email")
	if !ok {
		return
	}
	email, err := auth.NormalizeEmail(raw)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	start := time.Now()
	var u UsuarioOut
	var estatus string
	err = h.db.QueryRowContext(r.Context(),
		"SELECT "+usuarioColumns+", u.estatus"+usuarioFrom+" WHERE u.email = $1", email).
		Scan(&u.ID, &u.Email, &u.Nombres, &u.ApellidoPaterno,
			&u.ApellidoMaterno, &u.Puesto, &u.AutoridadClave, &estatus)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.WriteNotFoundError(w, "No existe el usuario")
		return
	}
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "usuarios", "get", err)
		return
	}
	observeQuery(h.metrics, "usuarios", "get", start)

	if estatus != "A" {
		writeInactive(w, "No es activo el usuario, fue eliminado")
		return
	}
	httputil.WriteSuccess(w, "Detalle del usuario", u)
}

func (h *UsuarioHandlers) listRoles(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := httputil.ParsePaginationOrError(w, r)
	if !ok {
		return
	}

	conditions := []string{"ur.estatus = 'A'"}
	var args []interface{}
	if rolID, err := httputil.ParseQueryInt(r, "rol_id", 0); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	} else if rolID > 0 {
		args = append(args, rolID)
		conditions = append(conditions, fmt.Sprintf("ur.rol_id = $%d", len(args)))
	}
	if raw := httputil.ParseQueryString(r, "usuario_email", ""); raw != "" {
		email, err := auth.NormalizeEmail(raw)
		if err != nil {
			httputil.WriteValidationError(w, err.Error())
			return
		}
		args = append(args, email)
		conditions = append(conditions, fmt.Sprintf("u.email = $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")
	from := ` FROM usuarios_roles ur
	JOIN usuarios u ON u.id = ur.usuario_id
	JOIN roles r2 ON r2.id = ur.rol_id`

	start := time.Now()
	var total int64
	if err := h.db.QueryRowContext(r.Context(),
		"SELECT COUNT(*)"+from+where, args...).Scan(&total); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "usuarios_roles", "count", err)
		return
	}

	query := "SELECT ur.id, u.email, r2.nombre, ur.descripcion" + from + where +
		fmt.Sprintf(" ORDER BY ur.id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := h.db.QueryContext(r.Context(), query, append(args, limit, offset)...)
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "usuarios_roles", "list", err)
		return
	}
	defer rows.Close()

	items := make([]UsuarioRolOut, 0)
	for rows.Next() {
		var ur UsuarioRolOut
		if err := rows.Scan(&ur.ID, &ur.UsuarioEmail, &ur.RolNombre, &ur.Descripcion); err != nil {
			writeQueryError(w, r, h.logger, h.metrics, "usuarios_roles", "list", err)
			return
		}
		items = append(items, ur)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "usuarios_roles", "list", err)
		return
	}
	observeQuery(h.metrics, "usuarios_roles", "list", start)

	httputil.WriteList(w, "Listado de usuarios roles", items, total, limit, offset)
}
