package api

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"codeberg.org/mutker/geotrackd/internal/logger"
	"codeberg.org/mutker/geotrackd/internal/probe"
	"codeberg.org/mutker/geotrackd/internal/storage"
)

// Server is the bearer-token-authenticated telemetry API. Every route sits
// behind the authentication gate; request handling runs independently of
// collection and never blocks it.
type Server struct {
	listen string
	store  storage.Store
	probe  probe.DeviceProbe
	router chi.Router

	mu     sync.Mutex
	server *http.Server
}

func NewServer(listen string, store storage.Store, deviceProbe probe.DeviceProbe) *Server {
	s := &Server{
		listen: listen,
		store:  store,
		probe:  deviceProbe,
		router: chi.NewRouter(),
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Use(s.authMiddleware)

	s.router.Get("/api/sensor_data", s.handle(s.handleSensorData))
	s.router.Get("/api/device_status", s.handle(s.handleDeviceStatus))

	notFound := func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "endpoint not found")
	}
	s.router.NotFound(notFound)
	s.router.MethodNotAllowed(notFound)
}

// Start binds the listener and begins serving on a goroutine. A bind
// failure (port already taken) is reported synchronously; starting a
// running server is a no-op.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return nil
	}

	listener, err := net.Listen("tcp", s.listen)
	if err != nil {
		return errFactory.Wrap(ErrPortInUse, err)
	}

	server := &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.server = server

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api server terminated")
		}
	}()

	logger.Info().Str("addr", s.listen).Msg("api server started")

	return nil
}

// Stop gracefully shuts the server down. Stopping a stopped server is a
// no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}

	if err := server.Shutdown(ctx); err != nil {
		return errFactory.Wrap(ErrServerClosed, err)
	}

	logger.Info().Msg("api server stopped")

	return nil
}

// Running reports whether the server currently holds a listener.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.server != nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			respondError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			respondError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		stored, err := s.store.Token(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		// Token comparison is case-sensitive; an empty stored credential
		// never authenticates.
		if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(parts[1])) != 1 {
			respondError(w, http.StatusUnauthorized, "invalid api token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handle adapts a route handler returning (data, error) into the envelope
// protocol: errors map centrally to a 500 carrying the fault message.
func (s *Server) handle(h func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := h(r)
		if err != nil {
			logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, data)
	}
}
