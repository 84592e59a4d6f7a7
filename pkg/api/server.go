package api

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pjecz/hercules-api/pkg/auth"
	"github.com/pjecz/hercules-api/pkg/httputil"
	"github.com/pjecz/hercules-api/pkg/middleware"
	"github.com/pjecz/hercules-api/pkg/observability"
)

// APIPrefix is the path prefix every resource route hangs from
const APIPrefix = "/api/v5"

// RouteRegistrar is implemented by every handler group
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// ServerConfig carries the server dependencies
type ServerConfig struct {
	DB           *sql.DB
	AuthService  *auth.Service
	Documents    DocumentPresigner
	LoginLimiter middleware.LoginLimiter
	Logger       *observability.Logger
	Metrics      *observability.Metrics
}

// Server is the API server: a gorilla/mux router carrying the middleware
// chain and every resource handler group
type Server struct {
	router  *mux.Router
	db      *sql.DB
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewServer creates the API server and registers all routes. The token
// endpoint stays outside the bearer middleware; everything else requires a
// valid token plus the per-module level the route names.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		db:      cfg.DB,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFoundError(w, "No existe la ruta")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorMessage(w, http.StatusMethodNotAllowed, "Metodo no permitido")
	})

	s.router.Use(mux.MiddlewareFunc(middleware.RequestLogging(cfg.Logger)))
	if cfg.Metrics != nil {
		s.router.Use(mux.MiddlewareFunc(observability.HTTPMetricsMiddleware(cfg.Metrics)))
	}

	s.router.HandleFunc(APIPrefix, s.root).Methods("GET")

	public := s.router.PathPrefix(APIPrefix).Subrouter()
	NewTokenHandlers(cfg.AuthService, cfg.LoginLimiter, cfg.Logger, cfg.Metrics).RegisterRoutes(public)

	authz := middleware.NewAuthMiddleware(cfg.AuthService, cfg.Logger, cfg.Metrics)
	protected := s.router.PathPrefix(APIPrefix).Subrouter()
	protected.Use(authz.RequireBearer)

	for _, group := range []RouteRegistrar{
		NewDistritoHandlers(cfg.DB, authz, cfg.Logger, cfg.Metrics),
		NewAutoridadHandlers(cfg.DB, authz, cfg.Logger, cfg.Metrics),
		NewMateriaHandlers(cfg.DB, authz, cfg.Logger, cfg.Metrics),
		NewSentenciaHandlers(cfg.DB, cfg.Documents, authz, cfg.Logger, cfg.Metrics),
		NewEdictoHandlers(cfg.DB, authz, cfg.Logger, cfg.Metrics),
		NewListaDeAcuerdosHandlers(cfg.DB, cfg.Documents, authz, cfg.Logger, cfg.Metrics),
		NewCatalogoHandlers(cfg.DB, authz, cfg.Logger, cfg.Metrics),
		NewUsuarioHandlers(cfg.DB, authz, cfg.Logger, cfg.Metrics),
	} {
		group.RegisterRoutes(protected)
	}

	return s
}

// root answers the version banner, no token required
func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, "API v5 del Poder Judicial", map[string]string{
		"name":    "hercules-api",
		"version": "v5",
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying router for additional registrations
func (s *Server) Router() *mux.Router {
	return s.router
}
