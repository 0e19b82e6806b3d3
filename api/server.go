package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rpupo63/portfolio-site-backend/config"
	"github.com/rpupo63/portfolio-site-backend/database"
	"github.com/rpupo63/portfolio-site-backend/identity"
	"github.com/rpupo63/portfolio-site-backend/services"
	"github.com/rs/zerolog/log"
)

// Dependencies are the clients and services built once in main and shared by every handler.
type Dependencies struct {
	Settings config.Settings
	Database database.Database
	Verifier identity.SessionVerifier
	Auth     *services.AuthService
	Contact  *services.ContactService
	Projects *services.ProjectService
	Badge    *services.UnreadBadge
}

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(deps Dependencies) (Server, error) {
	if deps.Auth == nil || deps.Contact == nil || deps.Projects == nil {
		return Server{}, fmt.Errorf("api: auth, contact and project services are required")
	}

	address := fmt.Sprintf("0.0.0.0:%s", deps.Settings.Server.Port) // Bind to 0.0.0.0 for external access

	// Capture startup time
	startupTime := time.Now()

	router := newRouter(deps, withStartupTime(startupTime))

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  deps.Settings.Server.ReadTimeout,  // Timeout for reading the entire request
		WriteTimeout: deps.Settings.Server.WriteTimeout, // Timeout for writing the response
		IdleTimeout:  deps.Settings.Server.IdleTimeout,  // Timeout for idle connections
	}

	return Server{server, startupTime}, nil
}

type router struct {
	startupTime time.Time
	accessLog   bool
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func withoutAccessLog() func(*router) {
	return func(r *router) {
		r.accessLog = false
	}
}

func newRouter(deps Dependencies, opts ...func(*router)) *chi.Mux {
	router := router{startupTime: time.Now(), accessLog: true}
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(middleware.RealIP)
	chiRouter.Use(LogInternalServerErrors)
	if router.accessLog {
		chiRouter.Use(ColoredHTTPLoggingMiddleware)
	}

	// Apply CORS middleware
	acceptedOrigins := deps.Settings.Server.AcceptedOrigins
	chiRouter.Use(CORSCheckMiddleware(acceptedOrigins))
	chiRouter.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return originAllowed(acceptedOrigins, origin)
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	cookies := newCookieWriter(deps.Settings.Server)
	handlers := initializeHandlers(deps, cookies, router.startupTime)
	auth := newAuthMiddleware(deps.Verifier, deps.Auth, cookies)

	chiRouter.Use(auth.session)

	chiRouter.Route("/api", func(r chi.Router) {
		setupAPIRoutes(r, handlers, auth)
	})
	setupPageRoutes(chiRouter, handlers, auth)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
