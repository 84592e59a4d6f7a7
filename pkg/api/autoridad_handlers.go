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

// AutoridadHandlers serves the courts and notary offices catalog
type AutoridadHandlers struct {
	db      *sql.DB
	authz   *middleware.AuthMiddleware
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewAutoridadHandlers creates the authority handlers
func NewAutoridadHandlers(db *sql.DB, authz *middleware.AuthMiddleware, logger *observability.Logger, metrics *observability.Metrics) *AutoridadHandlers {
	return &AutoridadHandlers{db: db, authz: authz, logger: logger, metrics: metrics}
}

// RegisterRoutes registers the authority routes
func (h *AutoridadHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/autoridades", h.authz.RequirePermission(rbac.ModuleAutoridades, rbac.LevelView, h.list)).Methods("GET")
	router.HandleFunc("/autoridades/{clave}", h.authz.RequirePermission(rbac.ModuleAutoridades, rbac.LevelView, h.get)).Methods("GET")
}

const autoridadColumns = `a.id, a.clave, a.descripcion, a.descripcion_corta,
	d.clave, d.nombre_corto, m.clave, m.nombre,
	a.es_jurisdiccional, a.es_notaria, a.organo_jurisdiccional`

const autoridadFrom = ` FROM autoridades a
	JOIN distritos d ON d.id = a.distrito_id
	JOIN materias m ON m.id = a.materia_id`

func scanAutoridad(row interface{ Scan(...interface{}) error }, a *AutoridadOut, extra ...interface{}) error {
	dest := []interface{}{&a.ID, &a.Clave, &a.Descripcion, &a.DescripcionCorta,
		&a.DistritoClave, &a.DistritoNombreCorto, &a.MateriaClave, &a.MateriaNombre,
		&a.EsJurisdiccional, &a.EsNotaria, &a.OrganoJurisdiccional}
	return row.Scan(append(dest, extra...)...)
}

func (h *AutoridadHandlers) list(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := httputil.ParsePaginationOrError(w, r)
	if !ok {
		return
	}

	conditions := []string{"a.estatus = 'A'"}
	var args []interface{}

	if raw := httputil.ParseQueryString(r, "distrito_clave", ""); raw != "" {
		clave, err := safeClave(raw)
		if err != nil {
			httputil.WriteValidationError(w, err.Error())
			return
		}
		args = append(args, clave)
		conditions = append(conditions, fmt.Sprintf("d.clave = $%d", len(args)))
	}
	if raw := httputil.ParseQueryString(r, "materia_clave", ""); raw != "" {
		clave, err := safeClave(raw)
		if err != nil {
			httputil.WriteValidationError(w, err.Error())
			return
		}
		args = append(args, clave)
		conditions = append(conditions, fmt.Sprintf("m.clave = $%d", len(args)))
	}
	for _, filter := range []string{"es_jurisdiccional", "es_notaria"} {
		value, present, err := httputil.ParseQueryBool(r, filter)
		if err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		if present {
			args = append(args, value)
			conditions = append(conditions, fmt.Sprintf("a.%s = $%d", filter, len(args)))
		}
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	start := time.Now()
	var total int64
	if err := h.db.QueryRowContext(r.Context(),
		"SELECT COUNT(*)"+autoridadFrom+where, args...).Scan(&total); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "autoridades", "count", err)
		return
	}

	query := "SELECT " + autoridadColumns + autoridadFrom + where +
		fmt.Sprintf(" ORDER BY a.clave LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := h.db.QueryContext(r.Context(), query, append(args, limit, offset)...)
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "autoridades", "list", err)
		return
	}
	defer rows.Close()

	items := make([]AutoridadOut, 0)
	for rows.Next() {
		var a AutoridadOut
		if err := scanAutoridad(rows, &a); err != nil {
			writeQueryError(w, r, h.logger, h.metrics, "autoridades", "list", err)
			return
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "autoridades", "list", err)
		return
	}
	observeQuery(h.metrics, "autoridades", "list", start)

	httputil.WriteList(w, "Listado de autoridades", items, total, limit, offset)
}

func (h *AutoridadHandlers) get(w http.ResponseWriter, r *http.Request) {
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
	var a AutoridadOut
	var estatus string
	row := h.db.QueryRowContext(r.Context(),
		"SELECT "+autoridadColumns+", a.estatus"+autoridadFrom+" WHERE a.clave = $1", clave)
	err = scanAutoridad(row, &a, &estatus)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.WriteNotFoundError(w, "No existe la autoridad")
		return
	}
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "autoridades", "get", err)
		return
	}
	observeQuery(h.metrics, "autoridades", "get", start)

	if estatus != "A" {
		writeInactive(w, "No es activa la autoridad, fue eliminada")
		return
	}
	httputil.WriteSuccess(w, "Detalle de la autoridad", a)
}
