package auth

import (
	"net/http"

	"github.com/taskiq/taskiq-auth/internal/auth/constants"
	"github.com/taskiq/taskiq-auth/internal/auth/handlers"
	"github.com/taskiq/taskiq-auth/internal/auth/middleware"
	"github.com/taskiq/taskiq-auth/internal/config"
	"go.uber.org/fx"
)

// Service exposes the auth server routes
type Service struct {
	config  *config.ServerConfig
	handler *handlers.Handler
}

// NewService creates a new auth service
func NewService(cfg *config.Config, handler *handlers.Handler) *Service {
	return &Service{
		config:  &cfg.Server,
		handler: handler,
	}
}

// RegisterRoutes registers all auth server routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+constants.RootPath+"{$}", s.handler.HandleRoot)
	mux.HandleFunc("GET "+constants.GenerateAuthURLPath, s.handler.HandleGenerateAuthURL)
	mux.HandleFunc("GET "+constants.CallbackPath, s.handler.HandleAuthCallback)
	mux.HandleFunc("GET "+constants.TokenStatusPath, s.handler.HandleTokenStatus)
}

// WrapWithMiddleware wraps the mux with request logging and CORS
func (s *Service) WrapWithMiddleware(handler http.Handler) http.Handler {
	return middleware.RequestLogger(middleware.CORSWithOrigins(s.config.AllowOrigins)(handler))
}

// Handler returns the routed and wrapped HTTP handler
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.WrapWithMiddleware(mux)
}

// Module provides the HTTP handler layer
var Module = fx.Module("auth",
	fx.Provide(
		handlers.NewHandler,
		NewService,
	),
)
