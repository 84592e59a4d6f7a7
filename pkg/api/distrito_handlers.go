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

// DistritoHandlers serves the judicial district catalog
type DistritoHandlers struct {
	db      *sql.DB
	authz   *middleware.AuthMiddleware
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewDistritoHandlers creates the district handlers
func NewDistritoHandlers(db *sql.DB, authz *middleware.AuthMiddleware, logger *observability.Logger, metrics *observability.Metrics) *DistritoHandlers {
	return &DistritoHandlers{db: db, authz: authz, logger: logger, metrics: metrics}
}

// RegisterRoutes registers the district routes
func (h *DistritoHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/distritos", h.authz.RequirePermission(rbac.ModuleDistritos, rbac.LevelView, h.list)).Methods("GET")
	router.HandleFunc("/distritos/{clave}", h.authz.RequirePermission(rbac.ModuleDistritos, rbac.LevelView, h.get)).Methods("GET")
}

func (h *DistritoHandlers) list(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := httputil.ParsePaginationOrError(w, r)
	if !ok {
		return
	}

	conditions := []string{"estatus = 'A'"}
	var args []interface{}
	for _, filter := range []string{"es_distrito", "es_jurisdiccional"} {
		value, present, err := httputil.ParseQueryBool(r, filter)
		if err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		if present {
			args = append(args, value)
			conditions = append(conditions, fmt.Sprintf("%s = $%d", filter, len(args)))
		}
	}
	where := strings.Join(conditions, " AND ")

	start := time.Now()
	var total int64
	if err := h.db.QueryRowContext(r.Context(),
		"SELECT COUNT(*) FROM distritos WHERE "+where, args...).Scan(&total); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "distritos", "count", err)
		return
	}

	query := `SELECT id, clave, nombre, nombre_corto, es_distrito_judicial, es_distrito, es_jurisdiccional
		FROM distritos WHERE ` + where +
		fmt.Sprintf(" ORDER BY clave LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := h.db.QueryContext(r.Context(), query, append(args, limit, offset)...)
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "distritos", "list", err)
		return
	}
	defer rows.Close()

	items := make([]DistritoOut, 0)
	for rows.Next() {
		var d DistritoOut
		if err := rows.Scan(&d.ID, &d.Clave, &d.Nombre, &d.NombreCorto,
			&d.EsDistritoJudicial, &d.EsDistrito, &d.EsJurisdiccional); err != nil {
			writeQueryError(w, r, h.logger, h.metrics, "distritos", "list", err)
			return
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "distritos", "list", err)
		return
	}
	observeQuery(h.metrics, "distritos", "list", start)

	httputil.WriteList(w, "Listado de distritos", items, total, limit, offset)
}

func (h *DistritoHandlers) get(w http.ResponseWriter, r *http.Request) {
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
	var d DistritoOut
	var estatus string
	err = h.db.QueryRowContext(r.Context(),
		`SELECT id, clave, nombre, nombre_corto, es_distrito_judicial, es_distrito, es_jurisdiccional, estatus
		FROM distritos WHERE clave = $1`, clave).
		Scan(&d.ID, &d.Clave, &d.Nombre, &d.NombreCorto,
			&d.EsDistritoJudicial, &d.EsDistrito, &d.EsJurisdiccional, &estatus)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.WriteNotFoundError(w, "No existe el distrito")
		return
	}
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "distritos", "get", err)
		return
	}
	observeQuery(h.metrics, "distritos", "get", start)

	if estatus != "A" {
		writeInactive(w, "No es activo el distrito, fue eliminado")
		return
	}
	httputil.WriteSuccess(w, "Detalle del distrito", d)
}
