package api

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pjecz/hercules-api/pkg/httputil"
	"github.com/pjecz/hercules-api/pkg/middleware"
	"github.com/pjecz/hercules-api/pkg/observability"
	"github.com/pjecz/hercules-api/pkg/rbac"
)

// CatalogoHandlers serves the access control catalogs: modules, roles and
// permissions
type CatalogoHandlers struct {
	db      *sql.DB
	authz   *middleware.AuthMiddleware
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewCatalogoHandlers creates the access control catalog handlers
func NewCatalogoHandlers(db *sql.DB, authz *middleware.AuthMiddleware, logger *observability.Logger, metrics *observability.Metrics) *CatalogoHandlers {
	return &CatalogoHandlers{db: db, authz: authz, logger: logger, metrics: metrics}
}

// RegisterRoutes registers the catalog routes
func (h *CatalogoHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/modulos", h.authz.RequirePermission(rbac.ModuleModulos, rbac.LevelView, h.listModulos)).Methods("GET")
	router.HandleFunc("/roles", h.authz.RequirePermission(rbac.ModuleRoles, rbac.LevelView, h.listRoles)).Methods("GET")
	router.HandleFunc("/permisos", h.authz.RequirePermission(rbac.ModulePermisos, rbac.LevelView, h.listPermisos)).Methods("GET")
	router.HandleFunc("/permisos/{id:[0-9]+}", h.authz.RequirePermission(rbac.ModulePermisos, rbac.LevelView, h.getPermiso)).Methods("GET")
}

func (h *CatalogoHandlers) listModulos(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := httputil.ParsePaginationOrError(w, r)
	if !ok {
		return
	}

	start := time.Now()
	var total int64
	if err := h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM modulos WHERE estatus = 'A'`).Scan(&total); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "modulos", "count", err)
		return
	}

	rows, err := h.db.QueryContext(r.Context(),
		`SELECT id, nombre FROM modulos WHERE estatus = 'A' ORDER BY nombre LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "modulos", "list", err)
		return
	}
	defer rows.Close()

	items := make([]ModuloOut, 0)
	for rows.Next() {
		var m ModuloOut
		if err := rows.Scan(&m.ID, &m.Nombre); err != nil {
			writeQueryError(w, r, h.logger, h.metrics, "modulos", "list", err)
			return
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "modulos", "list", err)
		return
	}
	observeQuery(h.metrics, "modulos", "list", start)

	httputil.WriteList(w, "Listado de modulos", items, total, limit, offset)
}

func (h *CatalogoHandlers) listRoles(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := httputil.ParsePaginationOrError(w, r)
	if !ok {
		return
	}

	start := time.Now()
	var total int64
	if err := h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM roles WHERE estatus = 'A'`).Scan(&total); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "roles", "count", err)
		return
	}

	rows, err := h.db.QueryContext(r.Context(),
		`SELECT id, nombre FROM roles WHERE estatus = 'A' ORDER BY nombre LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "roles", "list", err)
		return
	}
	defer rows.Close()

	items := make([]RolOut, 0)
	for rows.Next() {
		var rol RolOut
		if err := rows.Scan(&rol.ID, &rol.Nombre); err != nil {
			writeQueryError(w, r, h.logger, h.metrics, "roles", "list", err)
			return
		}
		items = append(items, rol)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "roles", "list", err)
		return
	}
	observeQuery(h.metrics, "roles", "list", start)

	httputil.WriteList(w, "Listado de roles", items, total, limit, offset)
}

const permisoColumns = `p.id, r.nombre, m.nombre, p.nivel`

const permisoFrom = ` FROM permisos p
	JOIN roles r ON r.id = p.rol_id
	JOIN modulos m ON m.id = p.modulo_id`

func (h *CatalogoHandlers) listPermisos(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := httputil.ParsePaginationOrError(w, r)
	if !ok {
		return
	}

	start := time.Now()
	var total int64
	if err := h.db.QueryRowContext(r.Context(),
		"SELECT COUNT(*)"+permisoFrom+" WHERE p.estatus = 'A'").Scan(&total); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "permisos", "count", err)
		return
	}

	rows, err := h.db.QueryContext(r.Context(),
		"SELECT "+permisoColumns+permisoFrom+
			" WHERE p.estatus = 'A' ORDER BY p.id LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "permisos", "list", err)
		return
	}
	defer rows.Close()

	items := make([]PermisoOut, 0)
	for rows.Next() {
		var p PermisoOut
		if err := rows.Scan(&p.ID, &p.RolNombre, &p.ModuloNombre, &p.Nivel); err != nil {
			writeQueryError(w, r, h.logger, h.metrics, "permisos", "list", err)
			return
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "permisos", "list", err)
		return
	}
	observeQuery(h.metrics, "permisos", "list", start)

	httputil.WriteList(w, "Listado de permisos", items, total, limit, offset)
}

func (h *CatalogoHandlers) getPermiso(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	var p PermisoOut
	var estatus string
	err := h.db.QueryRowContext(r.Context(),
		"SELECT "+permisoColumns+", p.estatus"+permisoFrom+" WHERE p.id = $1", id).
		Scan(&p.ID, &p.RolNombre, &p.ModuloNombre, &p.Nivel, &estatus)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.WriteNotFoundError(w, "No existe el permiso")
		return
	}
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "permisos", "get", err)
		return
	}
	observeQuery(h.metrics, "permisos", "get", start)

	if estatus != "A" {
		writeInactive(w, "No es activo el permiso, fue eliminado")
		return
	}
	httputil.WriteSuccess(w, "Detalle del permiso", p)
}
