package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/ducktag/pkg/api/handlers"
	"github.com/cbodonnell/ducktag/pkg/api/middleware"
	"github.com/cbodonnell/ducktag/pkg/log"
	"github.com/cbodonnell/ducktag/pkg/repositories"
	"github.com/cbodonnell/ducktag/pkg/state"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port         int
	TLS          *TLSConfig
	StateManager state.StateManager
	// Repository is optional; the match endpoints are only served when it is set
	Repository repositories.Repository
}

// NewAPIServer creates a new http.Server for the replica status API
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts.StateManager, opts.Repository),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// NewRouter builds the status API routes.
func NewRouter(stateManager state.StateManager, repository repositories.Repository) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(), middleware.NewCORSMiddleware())

	r.HandleFunc("/health", handlers.HandleHealth()).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/state", handlers.HandleGetState(stateManager)).Methods(http.MethodGet, http.MethodOptions)
	if repository != nil {
		r.HandleFunc("/matches", handlers.HandleListMatches(repository)).Methods(http.MethodGet, http.MethodOptions)
		r.HandleFunc("/matches/{matchID:[0-9]+}", handlers.HandleGetMatch(repository)).Methods(http.MethodGet, http.MethodOptions)
	}
	return r
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
