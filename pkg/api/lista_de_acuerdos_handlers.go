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

// ListaDeAcuerdosHandlers serves agreement lists
type ListaDeAcuerdosHandlers struct {
	db        *sql.DB
	documents DocumentPresigner
	authz     *middleware.AuthMiddleware
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// NewListaDeAcuerdosHandlers creates the agreement list handlers. The
// document presigner may be nil when object storage is not configured.
func NewListaDeAcuerdosHandlers(db *sql.DB, documents DocumentPresigner, authz *middleware.AuthMiddleware, logger *observability.Logger, metrics *observability.Metrics) *ListaDeAcuerdosHandlers {
	return &ListaDeAcuerdosHandlers{db: db, documents: documents, authz: authz, logger: logger, metrics: metrics}
}

// RegisterRoutes registers the agreement list routes
func (h *ListaDeAcuerdosHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/listas_de_acuerdos", h.authz.RequirePermission(rbac.ModuleListasDeAcuerdos, rbac.LevelView, h.list)).Methods("GET")
	router.HandleFunc("/listas_de_acuerdos/{id:[0-9]+}", h.authz.RequirePermission(rbac.ModuleListasDeAcuerdos, rbac.LevelView, h.get)).Methods("GET")
	router.HandleFunc("/listas_de_acuerdos/{id:[0-9]+}/descargar", h.authz.RequirePermission(rbac.ModuleListasDeAcuerdos, rbac.LevelView, h.descargar)).Methods("GET")
}

const listaColumns = `l.id, a.clave, l.fecha, l.descripcion, l.archivo, l.url, l.creado`

const listaFrom = ` FROM listas_de_acuerdos l JOIN autoridades a ON a.id = l.autoridad_id`

func scanLista(row interface{ Scan(...interface{}) error }, l *ListaDeAcuerdoOut, extra ...interface{}) error {
	var fecha, creado time.Time
	dest := []interface{}{&l.ID, &l.AutoridadClave, &fecha, &l.Descripcion, &l.Archivo, &l.URL, &creado}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	l.Fecha = formatDate(fecha)
	l.Creado = formatTimestamp(creado)
	return nil
}

func (h *ListaDeAcuerdosHandlers) list(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := httputil.ParsePaginationOrError(w, r)
	if !ok {
		return
	}

	conditions := []string{"l.estatus = 'A'"}
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

	fecha, desde, hasta, err := fechaRange(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if !fecha.IsZero() {
		args = append(args, fecha)
		conditions = append(conditions, fmt.Sprintf("l.fecha = $%d", len(args)))
	}
	if !desde.IsZero() {
		args = append(args, desde)
		conditions = append(conditions, fmt.Sprintf("l.fecha >= $%d", len(args)))
	}
	if !hasta.IsZero() {
		args = append(args, hasta)
		conditions = append(conditions, fmt.Sprintf("l.fecha <= $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	start := time.Now()
	var total int64
	if err := h.db.QueryRowContext(r.Context(),
		"SELECT COUNT(*)"+listaFrom+where, args...).Scan(&total); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "listas_de_acuerdos", "count", err)
		return
	}

	// most recent list first
	query := "SELECT " + listaColumns + listaFrom + where +
		fmt.Sprintf(" ORDER BY l.fecha DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := h.db.QueryContext(r.Context(), query, append(args, limit, offset)...)
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "listas_de_acuerdos", "list", err)
		return
	}
	defer rows.Close()

	items := make([]ListaDeAcuerdoOut, 0)
	for rows.Next() {
		var l ListaDeAcuerdoOut
		if err := scanLista(rows, &l); err != nil {
			writeQueryError(w, r, h.logger, h.metrics, "listas_de_acuerdos", "list", err)
			return
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "listas_de_acuerdos", "list", err)
		return
	}
	observeQuery(h.metrics, "listas_de_acuerdos", "list", start)

	httputil.WriteList(w, "Listado de listas de acuerdos", items, total, limit, offset)
}

func (h *ListaDeAcuerdosHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	var l ListaDeAcuerdoOut
	var estatus string
	row := h.db.QueryRowContext(r.Context(),
		"SELECT "+listaColumns+", l.estatus"+listaFrom+" WHERE l.id = $1", id)
	err := scanLista(row, &l, &estatus)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.WriteNotFoundError(w, "No existe la lista de acuerdos")
		return
	}
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "listas_de_acuerdos", "get", err)
		return
	}
	observeQuery(h.metrics, "listas_de_acuerdos", "get", start)

	if estatus != "A" {
		writeInactive(w, "No es activa la lista de acuerdos, fue eliminada")
		return
	}
	httputil.WriteSuccess(w, "Detalle de la lista de acuerdos", l)
}

func (h *ListaDeAcuerdosHandlers) descargar(w http.ResponseWriter, r *http.Request) {
	if h.documents == nil {
		httputil.WriteErrorMessage(w, http.StatusNotImplemented, "No esta configurado el almacen de documentos")
		return
	}
	id, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}

	var archivo string
	err := h.db.QueryRowContext(r.Context(),
		`SELECT archivo FROM listas_de_acuerdos WHERE id = $1 AND estatus = 'A'`, id).Scan(&archivo)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.WriteNotFoundError(w, "No existe la lista de acuerdos")
		return
	}
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "listas_de_acuerdos", "descargar", err)
		return
	}
	if archivo == "" {
		httputil.WriteNotFoundError(w, "La lista de acuerdos no tiene archivo")
		return
	}

	url, err := h.documents.PresignDownload(r.Context(), archivo)
	if err != nil {
		middleware.GetRequestLogger(r, h.logger).WithError(err).Error("Presign failed")
		httputil.WriteInternalError(w, errors.New("No fue posible generar la descarga"))
		return
	}

	httputil.WriteSuccess(w, "Descarga de la lista de acuerdos", DescargarOut{
		ID:      int64(id),
		Archivo: archivo,
		URL:     url,
	})
}
