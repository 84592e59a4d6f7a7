// Package api implements the HTTP resource handlers. Every handler answers
// the uniform response envelope; routes register themselves on a gorilla/mux
// router that the server wraps with the middleware chain.
package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/pjecz/hercules-api/pkg/httputil"
	"github.com/pjecz/hercules-api/pkg/middleware"
	"github.com/pjecz/hercules-api/pkg/observability"
)

var claveRegexp = regexp.MustCompile(`^[A-Z0-9-]{2,16}$`)

// safeClave normalizes a catalog key from a path or query parameter.
// Keys are uppercase alphanumerics and hyphens, 2 to 16 characters.
func safeClave(raw string) (string, error) {
	clave := strings.ToUpper(strings.TrimSpace(raw))
	if !claveRegexp.MatchString(clave) {
		return "", fmt.Errorf("clave no valida: %s", raw)
	}
	return clave, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatNullDate(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format("2006-01-02")
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

// observeQuery records duration metrics for a database query
func observeQuery(metrics *observability.Metrics, resource, operation string, start time.Time) {
	if metrics == nil {
		return
	}
	metrics.QueryDuration.WithLabelValues(resource, operation).Observe(time.Since(start).Seconds())
}

// writeQueryError logs a failed query and answers a generic 500 envelope.
// Database error details never reach the client.
func writeQueryError(w http.ResponseWriter, r *http.Request, logger *observability.Logger, metrics *observability.Metrics, resource, operation string, err error) {
	if metrics != nil {
		metrics.QueryErrorsTotal.WithLabelValues(resource, operation).Inc()
	}
	middleware.GetRequestLogger(r, logger).WithError(err).
		WithFields(map[string]interface{}{"resource": resource, "operation": operation}).
		Error("Query failed")
	httputil.WriteInternalError(w, errors.New("Error de base de datos"))
}

// writeInactive answers the failure envelope for a soft-deleted record. The
// record exists, so this is not a 404; success false tells the client it was
// removed.
func writeInactive(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Success: false,
		Message: message,
		Errors:  []string{message},
		Data:    nil,
	})
}

// creadoRange resolves the creado, creado_desde and creado_hasta query
// parameters into a half-open timestamp range. A creado value overrides the
// range with that single day.
func creadoRange(r *http.Request) (desde, hasta time.Time, err error) {
	creado, err := httputil.ParseQueryDate(r, "creado")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !creado.IsZero() {
		return creado, creado.AddDate(0, 0, 1), nil
	}

	desde, err = httputil.ParseQueryDate(r, "creado_desde")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	hasta, err = httputil.ParseQueryDate(r, "creado_hasta")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !hasta.IsZero() {
		hasta = hasta.AddDate(0, 0, 1)
	}
	return desde, hasta, nil
}

// fechaRange resolves the fecha, fecha_desde and fecha_hasta query
// parameters. Dates compare directly against DATE columns, so the range is
// inclusive on both ends.
func fechaRange(r *http.Request) (fecha, desde, hasta time.Time, err error) {
	fecha, err = httputil.ParseQueryDate(r, "fecha")
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, err
	}
	if !fecha.IsZero() {
		return fecha, time.Time{}, time.Time{}, nil
	}

	desde, err = httputil.ParseQueryDate(r, "fecha_desde")
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, err
	}
	hasta, err = httputil.ParseQueryDate(r, "fecha_hasta")
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, err
	}
	return time.Time{}, desde, hasta, nil
}
