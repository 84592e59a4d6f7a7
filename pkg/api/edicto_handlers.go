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

// EdictoHandlers serves published notices
type EdictoHandlers struct {
	db      *sql.DB
	authz   *middleware.AuthMiddleware
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewEdictoHandlers creates the notice handlers
func NewEdictoHandlers(db *sql.DB, authz *middleware.AuthMiddleware, logger *observability.Logger, metrics *observability.Metrics) *EdictoHandlers {
	return &EdictoHandlers{db: db, authz: authz, logger: logger, metrics: metrics}
}

// RegisterRoutes registers the notice routes. The RAG update checks the
// notices module itself, not the rulings module.
func (h *EdictoHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/edictos", h.authz.RequirePermission(rbac.ModuleEdictos, rbac.LevelView, h.list)).Methods("GET")
	router.HandleFunc("/edictos/rag", h.authz.RequirePermission(rbac.ModuleEdictos, rbac.LevelEdit, h.updateRAG)).Methods("PUT")
	router.HandleFunc("/edictos/{id:[0-9]+}", h.authz.RequirePermission(rbac.ModuleEdictos, rbac.LevelView, h.get)).Methods("GET")
}

const edictoColumns = `e.id, a.clave, e.fecha, e.descripcion, e.expediente,
	e.numero_publicacion, e.archivo, e.url, e.creado`

const edictoFrom = ` FROM edictos e JOIN autoridades a ON a.id = e.autoridad_id`

func scanEdicto(row interface{ Scan(...interface{}) error }, e *EdictoOut, extra ...interface{}) error {
	var fecha, creado time.Time
	dest := []interface{}{&e.ID, &e.AutoridadClave, &fecha, &e.Descripcion, &e.Expediente,
		&e.NumeroPublicacion, &e.Archivo, &e.URL, &creado}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	e.Fecha = formatDate(fecha)
	e.Creado = formatTimestamp(creado)
	return nil
}

func (h *EdictoHandlers) list(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := httputil.ParsePaginationOrError(w, r)
	if !ok {
		return
	}

	conditions := []string{"e.estatus = 'A'"}
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

	desde, hasta, err := creadoRange(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if !desde.IsZero() {
		args = append(args, desde)
		conditions = append(conditions, fmt.Sprintf("e.creado >= $%d", len(args)))
	}
	if !hasta.IsZero() {
		args = append(args, hasta)
		conditions = append(conditions, fmt.Sprintf("e.creado < $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	start := time.Now()
	var total int64
	if err := h.db.QueryRowContext(r.Context(),
		"SELECT COUNT(*)"+edictoFrom+where, args...).Scan(&total); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "edictos", "count", err)
		return
	}

	// newest first
	query := "SELECT " + edictoColumns + edictoFrom + where +
		fmt.Sprintf(" ORDER BY e.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := h.db.QueryContext(r.Context(), query, append(args, limit, offset)...)
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "edictos", "list", err)
		return
	}
	defer rows.Close()

	items := make([]EdictoOut, 0)
	for rows.Next() {
		var e EdictoOut
		if err := scanEdicto(rows, &e); err != nil {
			writeQueryError(w, r, h.logger, h.metrics, "edictos", "list", err)
			return
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "edictos", "list", err)
		return
	}
	observeQuery(h.metrics, "edictos", "list", start)

	httputil.WriteList(w, "Listado de edictos", items, total, limit, offset)
}

func (h *EdictoHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	var e EdictoDetalleOut
	var analisis, sintesis, categorias sql.NullString
	var estatus string
	row := h.db.QueryRowContext(r.Context(),
		"SELECT "+edictoColumns+`, e.rag_analisis, e.rag_sintesis, e.rag_categorias, e.estatus`+
			edictoFrom+" WHERE e.id = $1", id)
	err := scanEdicto(row, &e.EdictoOut, &analisis, &sintesis, &categorias, &estatus)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.WriteNotFoundError(w, "No existe el edicto")
		return
	}
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "edictos", "get", err)
		return
	}
	observeQuery(h.metrics, "edictos", "get", start)

	if estatus != "A" {
		writeInactive(w, "No es activo el edicto, fue eliminado")
		return
	}
	e.RAGAnalisis = nullString(analisis)
	e.RAGSintesis = nullString(sintesis)
	e.RAGCategorias = nullString(categorias)
	httputil.WriteSuccess(w, "Detalle del edicto", e)
}

func (h *EdictoHandlers) updateRAG(w http.ResponseWriter, r *http.Request) {
	var in ragUpdateIn
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}
	if !httputil.RequirePositive(w, in.ID, "id") {
		return
	}
	if in.Analisis == nil && in.Sintesis == nil && in.Categorias == nil {
		httputil.WriteValidationError(w, "Nada que actualizar: envie analisis, sintesis o categorias")
		return
	}

	var sets []string
	var args []interface{}
	if in.Analisis != nil {
		args = append(args, *in.Analisis)
		sets = append(sets, fmt.Sprintf("rag_analisis = $%d", len(args)),
			"rag_fue_analizado_tiempo = CURRENT_TIMESTAMP")
	}
	if in.Sintesis != nil {
		args = append(args, *in.Sintesis)
		sets = append(sets, fmt.Sprintf("rag_sintesis = $%d", len(args)),
			"rag_fue_sintetizado_tiempo = CURRENT_TIMESTAMP")
	}
	if in.Categorias != nil {
		args = append(args, *in.Categorias)
		sets = append(sets, fmt.Sprintf("rag_categorias = $%d", len(args)),
			"rag_fue_categorizado_tiempo = CURRENT_TIMESTAMP")
	}

	start := time.Now()
	query := "UPDATE edictos SET " + strings.Join(sets, ", ") +
		fmt.Sprintf(" WHERE id = $%d AND estatus = 'A'", len(args)+1)
	result, err := h.db.ExecContext(r.Context(), query, append(args, in.ID)...)
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "edictos", "update_rag", err)
		return
	}
	affected, err := result.RowsAffected()
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "edictos", "update_rag", err)
		return
	}
	if affected == 0 {
		httputil.WriteNotFoundError(w, "No existe el edicto")
		return
	}
	observeQuery(h.metrics, "edictos", "update_rag", start)

	middleware.GetRequestLogger(r, h.logger).WithField("edicto_id", in.ID).Info("RAG update")
	httputil.WriteSuccess(w, "Actualizado el edicto", map[string]interface{}{"id": in.ID})
}
