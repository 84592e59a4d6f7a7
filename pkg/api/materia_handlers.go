package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/pjecz/hercules-api/pkg/httputil"
	"github.com/pjecz/hercules-api/pkg/middleware"
	"github.com/pjecz/hercules-api/pkg/observability"
	"github.com/pjecz/hercules-api/pkg/rbac"
)

// MateriaHandlers serves the subject matter catalog and its trial types
type MateriaHandlers struct {
	db      *sql.DB
	authz   *middleware.AuthMiddleware
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewMateriaHandlers creates the subject matter handlers
func NewMateriaHandlers(db *sql.DB, authz *middleware.AuthMiddleware, logger *observability.Logger, metrics *observability.Metrics) *MateriaHandlers {
	return &MateriaHandlers{db: db, authz: authz, logger: logger, metrics: metrics}
}

// RegisterRoutes registers the subject matter and trial type routes
func (h *MateriaHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/materias", h.authz.RequirePermission(rbac.ModuleMaterias, rbac.LevelView, h.list)).Methods("GET")
	router.HandleFunc("/materias/{clave}", h.authz.RequirePermission(rbac.ModuleMaterias, rbac.LevelView, h.get)).Methods("GET")
	router.HandleFunc("/materias_tipos_juicios", h.authz.RequirePermission(rbac.ModuleMateriasTiposJuicios, rbac.LevelView, h.listTiposJuicios)).Methods("GET")
	router.HandleFunc("/materias_tipos_juicios/{id}", h.authz.RequirePermission(rbac.ModuleMateriasTiposJuicios, rbac.LevelView, h.getTipoJuicio)).Methods("GET")
}

func (h *MateriaHandlers) list(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := httputil.ParsePaginationOrError(w, r)
	if !ok {
		return
	}

	conditions := []string{"estatus = 'A'"}
	var args []interface{}
	value, present, err := httputil.ParseQueryBool(r, "en_sentencias")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if present {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("en_sentencias = $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	start := time.Now()
	var total int64
	if err := h.db.QueryRowContext(r.Context(),
		"SELECT COUNT(*) FROM materias WHERE "+where, args...).Scan(&total); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "materias", "count", err)
		return
	}

	query := `SELECT id, clave, nombre, descripcion, en_sentencias FROM materias WHERE ` + where +
		fmt.Sprintf(" ORDER BY clave LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := h.db.QueryContext(r.Context(), query, append(args, limit, offset)...)
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "materias", "list", err)
		return
	}
	defer rows.Close()

	items := make([]MateriaOut, 0)
	for rows.Next() {
		var m MateriaOut
		if err := rows.Scan(&m.ID, &m.Clave, &m.Nombre, &m.Descripcion, &m.EnSentencias); err != nil {
			writeQueryError(w, r, h.logger, h.metrics, "materias", "list", err)
			return
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "materias", "list", err)
		return
	}
	observeQuery(h.metrics, "materias", "list", start)

	httputil.WriteList(w, "Listado de materias", items, total, limit, offset)
}

func (h *MateriaHandlers) get(w http.ResponseWriter, r *http.Request) {
	raw, ok := httputil.ParsePathStringOrError(w, r, "clave")
	if !ok {
		return
	}
	clave, err := safeClave(raw)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	start := time.Now()
	var m MateriaOut
	var estatus string
	err = h.db.QueryRowContext(r.Context(),
		`SELECT id, clave, nombre, descripcion, en_sentencias, estatus FROM materias WHERE clave = $1`, clave).
		Scan(&m.ID, &m.Clave, &m.Nombre, &m.Descripcion, &m.EnSentencias, &estatus)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.WriteNotFoundError(w, "No existe la materia")
		return
	}
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "materias", "get", err)
		return
	}
	observeQuery(h.metrics, "materias", "get", start)

	if estatus != "A" {
		writeInactive(w, "No es activa la materia, fue eliminada")
		return
	}
	httputil.WriteSuccess(w, "Detalle de la materia", m)
}

func (h *MateriaHandlers) listTiposJuicios(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := httputil.ParsePaginationOrError(w, r)
	if !ok {
		return
	}

	conditions := []string{"mtj.estatus = 'A'"}
	var args []interface{}
	if raw := httputil.ParseQueryString(r, "materia_clave", ""); raw != "" {
		clave, err := safeClave(raw)
		if err != nil {
			httputil.WriteValidationError(w, err.Error())
			return
		}
		args = append(args, clave)
		conditions = append(conditions, fmt.Sprintf("m.clave = $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")
	from := ` FROM materias_tipos_juicios mtj JOIN materias m ON m.id = mtj.materia_id`

	start := time.Now()
	var total int64
	if err := h.db.QueryRowContext(r.Context(),
		"SELECT COUNT(*)"+from+where, args...).Scan(&total); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "materias_tipos_juicios", "count", err)
		return
	}

	query := "SELECT mtj.id, m.clave, mtj.descripcion" + from + where +
		fmt.Sprintf(" ORDER BY mtj.id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := h.db.QueryContext(r.Context(), query, append(args, limit, offset)...)
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "materias_tipos_juicios", "list", err)
		return
	}
	defer rows.Close()

	items := make([]MateriaTipoJuicioOut, 0)
	for rows.Next() {
		var t MateriaTipoJuicioOut
		if err := rows.Scan(&t.ID, &t.MateriaClave, &t.Descripcion); err != nil {
			writeQueryError(w, r, h.logger, h.metrics, "materias_tipos_juicios", "list", err)
			return
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "materias_tipos_juicios", "list", err)
		return
	}
	observeQuery(h.metrics, "materias_tipos_juicios", "list", start)

	httputil.WriteList(w, "Listado de tipos de juicios", items, total, limit, offset)
}

func (h *MateriaHandlers) getTipoJuicio(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	var t MateriaTipoJuicioOut
	var estatus string
	err := h.db.QueryRowContext(r.Context(),
		`SELECT mtj.id, m.clave, mtj.descripcion, mtj.estatus
		FROM materias_tipos_juicios mtj JOIN materias m ON m.id = mtj.materia_id
		WHERE mtj.id = $1`, id).
		Scan(&t.ID, &t.MateriaClave, &t.Descripcion, &estatus)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.WriteNotFoundError(w, "No existe el tipo de juicio")
		return
	}
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "materias_tipos_juicios", "get", err)
		return
	}
	observeQuery(h.metrics, "materias_tipos_juicios", "get", start)

	if estatus != "A" {
		writeInactive(w, "No es activo el tipo de juicio, fue eliminado")
		return
	}
	httputil.WriteSuccess(w, "Detalle del tipo de juicio", t)
}
