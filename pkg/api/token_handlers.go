package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pjecz/hercules-api/pkg/auth"
	"github.com/pjecz/hercules-api/pkg/httputil"
	"github.com/pjecz/hercules-api/pkg/middleware"
	"github.com/pjecz/hercules-api/pkg/observability"
)

// TokenHandlers serves the password flow token endpoint
type TokenHandlers struct {
	service *auth.Service
	limiter middleware.LoginLimiter
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewTokenHandlers creates the token endpoint handlers
func NewTokenHandlers(service *auth.Service, limiter middleware.LoginLimiter, logger *observability.Logger, metrics *observability.Metrics) *TokenHandlers {
	return &TokenHandlers{
		service: service,
		limiter: limiter,
		logger:  logger,
		metrics: metrics,
	}
}

// RegisterRoutes registers the token endpoint. The router must NOT carry the
// bearer middleware; this is the one endpoint reached without a token.
func (h *TokenHandlers) RegisterRoutes(router *mux.Router) {
	login := h.login
	if h.limiter != nil {
		login = middleware.LoginRateLimit(h.limiter, h.metrics)(login)
	}
	router.HandleFunc("/token", login).Methods("POST")
}

// login authenticates a form-encoded username and password pair and mints an
// access token. All authentication failures collapse to the same 401.
func (h *TokenHandlers) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.WriteBadRequest(w, "Formulario no valido")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		h.loginFailed(w, r, username, nil)
		return
	}

	identity, err := h.service.Authenticate(r.Context(), username, password)
	if err != nil {
		h.loginFailed(w, r, username, err)
		return
	}

	token, err := h.service.IssueToken(identity)
	if err != nil {
		middleware.GetRequestLogger(r, h.logger).WithError(err).Error("Token signing failed")
		httputil.WriteInternalError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
		h.metrics.TokensIssuedTotal.Inc()
	}
	middleware.GetRequestLogger(r, h.logger).WithField("email", identity.Email).Info("Login")

	httputil.WriteJSON(w, http.StatusOK, TokenOut{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   h.service.TokenTTLSeconds(),
		Username:    identity.Email,
	})
}

func (h *TokenHandlers) loginFailed(w http.ResponseWriter, r *http.Request, username string, cause error) {
	if h.metrics != nil {
		h.metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
	}
	entry := middleware.GetRequestLogger(r, h.logger).WithField("username", username)
	if cause != nil {
		entry = entry.WithError(cause)
	}
	entry.Info("Login rejected")
	httputil.WriteUnauthorized(w, "No es valido el usuario o la contrasena")
}
