package api

import (
	"context"
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

// DocumentPresigner issues time-limited download URLs for stored documents
type DocumentPresigner interface {
	PresignDownload(ctx context.Context, archivo string) (string, error)
}

// SentenciaHandlers serves published rulings
type SentenciaHandlers struct {
	db        *sql.DB
	documents DocumentPresigner
	authz     *middleware.AuthMiddleware
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// NewSentenciaHandlers creates the ruling handlers. The document presigner
// may be nil when object storage is not configured.
func NewSentenciaHandlers(db *sql.DB, documents DocumentPresigner, authz *middleware.AuthMiddleware, logger *observability.Logger, metrics *observability.Metrics) *SentenciaHandlers {
	return &SentenciaHandlers{db: db, documents: documents, authz: authz, logger: logger, metrics: metrics}
}

// RegisterRoutes registers the ruling routes. The RAG update needs the edit
// level; everything else is read only.
func (h *SentenciaHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/sentencias", h.authz.RequirePermission(rbac.ModuleSentencias, rbac.LevelView, h.list)).Methods("GET")
	router.HandleFunc("/sentencias/rag", h.authz.RequirePermission(rbac.ModuleSentencias, rbac.LevelEdit, h.updateRAG)).Methods("PUT")
	router.HandleFunc("/sentencias/{id:[0-9]+}", h.authz.RequirePermission(rbac.ModuleSentencias, rbac.LevelView, h.get)).Methods("GET")
	router.HandleFunc("/sentencias/{id:[0-9]+}/descargar", h.authz.RequirePermission(rbac.ModuleSentencias, rbac.LevelView, h.descargar)).Methods("GET")
}

const sentenciaColumns = `s.id, a.clave, mtj.descripcion, s.sentencia, s.sentencia_fecha,
	s.expediente, s.fecha, s.descripcion, s.es_perspectiva_genero, s.archivo, s.url, s.creado`

const sentenciaFrom = ` FROM sentencias s
	JOIN autoridades a ON a.id = s.autoridad_id
	JOIN materias_tipos_juicios mtj ON mtj.id = s.materia_tipo_juicio_id`

func scanSentencia(row interface{ Scan(...interface{}) error }, s *SentenciaOut, extra ...interface{}) error {
	var sentenciaFecha sql.NullTime
	var fecha, creado time.Time
	dest := []interface{}{&s.ID, &s.AutoridadClave, &s.MateriaTipoJuicio, &s.Sentencia, &sentenciaFecha,
		&s.Expediente, &fecha, &s.Descripcion, &s.EsPerspectivaGenero, &s.Archivo, &s.URL, &creado}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	s.SentenciaFecha = formatNullDate(sentenciaFecha)
	s.Fecha = formatDate(fecha)
	s.Creado = formatTimestamp(creado)
	return nil
}

func (h *SentenciaHandlers) list(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := httputil.ParsePaginationOrError(w, r)
	if !ok {
		return
	}

	conditions := []string{"s.estatus = 'A'"}
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
		conditions = append(conditions, fmt.Sprintf("s.creado >= $%d", len(args)))
	}
	if !hasta.IsZero() {
		args = append(args, hasta)
		conditions = append(conditions, fmt.Sprintf("s.creado < $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	start := time.Now()
	var total int64
	if err := h.db.QueryRowContext(r.Context(),
		"SELECT COUNT(*)"+sentenciaFrom+where, args...).Scan(&total); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "sentencias", "count", err)
		return
	}

	query := "SELECT " + sentenciaColumns + sentenciaFrom + where +
		fmt.Sprintf(" ORDER BY s.id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := h.db.QueryContext(r.Context(), query, append(args, limit, offset)...)
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "sentencias", "list", err)
		return
	}
	defer rows.Close()

	items := make([]SentenciaOut, 0)
	for rows.Next() {
		var s SentenciaOut
		if err := scanSentencia(rows, &s); err != nil {
			writeQueryError(w, r, h.logger, h.metrics, "sentencias", "list", err)
			return
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "sentencias", "list", err)
		return
	}
	observeQuery(h.metrics, "sentencias", "list", start)

	httputil.WriteList(w, "Listado de sentencias", items, total, limit, offset)
}

func (h *SentenciaHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	var s SentenciaDetalleOut
	var analisis, sintesis, categorias sql.NullString
	var estatus string
	row := h.db.QueryRowContext(r.Context(),
		"SELECT "+sentenciaColumns+`, s.rag_analisis, s.rag_sintesis, s.rag_categorias, s.estatus`+
			sentenciaFrom+" WHERE s.id = $1", id)
	err := scanSentencia(row, &s.SentenciaOut, &analisis, &sintesis, &categorias, &estatus)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.WriteNotFoundError(w, "No existe la sentencia")
		return
	}
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "sentencias", "get", err)
		return
	}
	observeQuery(h.metrics, "sentencias", "get", start)

	if estatus != "A" {
		writeInactive(w, "No es activa la sentencia, fue eliminada")
		return
	}
	s.RAGAnalisis = nullString(analisis)
	s.RAGSintesis = nullString(sintesis)
	s.RAGCategorias = nullString(categorias)
	httputil.WriteSuccess(w, "Detalle de la sentencia", s)
}

// ragUpdateIn is the RAG analysis update payload. Absent fields keep their
// stored values.
type ragUpdateIn struct {
	ID         int64   `json:"id"`
	Analisis   *string `json:"analisis"`
	Sintesis   *string `json:"sintesis"`
	Categorias *string `json:"categorias"`
}

func (h *SentenciaHandlers) updateRAG(w http.ResponseWriter, r *http.Request) {
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
	query := "UPDATE sentencias SET " + strings.Join(sets, ", ") +
		fmt.Sprintf(" WHERE id = $%d AND estatus = 'A'", len(args)+1)
	result, err := h.db.ExecContext(r.Context(), query, append(args, in.ID)...)
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "sentencias", "update_rag", err)
		return
	}
	affected, err := result.RowsAffected()
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "sentencias", "update_rag", err)
		return
	}
	if affected == 0 {
		httputil.WriteNotFoundError(w, "No existe la sentencia")
		return
	}
	observeQuery(h.metrics, "sentencias", "update_rag", start)

	middleware.GetRequestLogger(r, h.logger).WithField("sentencia_id", in.ID).Info("RAG update")
	httputil.WriteSuccess(w, "Actualizada la sentencia", map[string]interface{}{"id": in.ID})
}

func (h *SentenciaHandlers) descargar(w http.ResponseWriter, r *http.Request) {
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
		`SELECT archivo FROM sentencias WHERE id = $1 AND estatus = 'A'`, id).Scan(&archivo)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.WriteNotFoundError(w, "No existe la sentencia")
		return
	}
	if err != nil {
		writeQueryError(w, r, h.logger, h.metrics, "sentencias", "descargar", err)
		return
	}
	if archivo == "" {
		httputil.WriteNotFoundError(w, "La sentencia no tiene archivo")
		return
	}

	url, err := h.documents.PresignDownload(r.Context(), archivo)
	if err != nil {
		middleware.GetRequestLogger(r, h.logger).WithError(err).Error("Presign failed")
		httputil.WriteInternalError(w, errors.New("No fue posible generar la descarga"))
		return
	}

	httputil.WriteSuccess(w, "Descarga de la sentencia", DescargarOut{
		ID:      int64(id),
		Archivo: archivo,
		URL:     url,
	})
}
