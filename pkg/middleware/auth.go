// Package middleware provides the HTTP middleware chain: bearer token
// authentication, per-module permission enforcement, request logging, and
// login rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/pjecz/hercules-api/pkg/auth"
	"github.com/pjecz/hercules-api/pkg/contextkeys"
	"github.com/pjecz/hercules-api/pkg/httputil"
	"github.com/pjecz/hercules-api/pkg/observability"
	"github.com/pjecz/hercules-api/pkg/rbac"
)

// AuthMiddleware authenticates requests with bearer tokens
type AuthMiddleware struct {
	service *auth.Service
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewAuthMiddleware creates the bearer authentication middleware
func NewAuthMiddleware(service *auth.Service, logger *observability.Logger, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// RequireBearer rejects requests without a valid bearer token and stores
// the resolved identity in the request context. Every failure answers the
// same 401 envelope; the cause is only logged.
func (m *AuthMiddleware) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearerToken(r)
		if !ok {
			m.unauthorized(w)
			return
		}

		identity, err := m.service.ValidateToken(r.Context(), token)
		if err != nil {
			m.logger.WithError(err).
				WithField("request_id", contextkeys.GetRequestID(r.Context())).
				Debug("Token validation failed")
			m.unauthorized(w)
			return
		}

		if m.metrics != nil {
			m.metrics.TokenValidationTotal.WithLabelValues("ok").Inc()
		}

		ctx := contextkeys.WithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) unauthorized(w http.ResponseWriter) {
	if m.metrics != nil {
		m.metrics.TokenValidationTotal.WithLabelValues("rejected").Inc()
	}
	httputil.WriteUnauthorized(w, "No autorizado")
}

// extractBearerToken pulls the token from the Authorization header
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetIdentity returns the authenticated identity from the request, or nil
func GetIdentity(r *http.Request) *auth.Identity {
	identity, _ := r.Context().Value(contextkeys.IdentityKey).(*auth.Identity)
	return identity
}

// RequirePermission enforces a minimum level on a module. It must run
// after RequireBearer; a missing identity answers 401.
func (m *AuthMiddleware) RequirePermission(module string, level rbac.Level, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentity(r)
		if identity == nil {
			httputil.WriteUnauthorized(w, "No autorizado")
			return
		}
		if !identity.Can(module, level) {
			if m.metrics != nil {
				m.metrics.PermissionDenials.WithLabelValues(module).Inc()
			}
			m.logger.WithFields(map[string]interface{}{
				"email":  identity.Email,
				"module": module,
				"level":  level.String(),
			}).Debug("Permission denied")
			httputil.WriteForbidden(w, "No tiene permiso suficiente")
			return
		}
		next(w, r)
	}
}
