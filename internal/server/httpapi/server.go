// Package httpapi exposes the credential service over HTTP/JSON. Every
// response is wrapped in the same envelope (success flag, message, data)
// and errors map to statuses without leaking internal detail.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dberzins/userauth/internal/logging"
	"github.com/dberzins/userauth/internal/server/services"
)

type Server struct {
	address string
	users   *services.UserService
	logger  logging.Logger
}

func NewServer(address string, l logging.Logger, us *services.UserService) *Server {
	return &Server{
		address: address,
		users:   us,
		logger:  l.With("module", "http_server"),
	}
}

// Handler builds the full route table. Split out of Run so tests can drive
// the API through httptest without opening a port.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	auth.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", s.handleRefresh).Methods(http.MethodPost)
	auth.Handle("/logout", s.authenticate(http.HandlerFunc(s.handleLogout))).Methods(http.MethodPost)
	auth.Handle("/profile", s.authenticate(http.HandlerFunc(s.handleProfile))).Methods(http.MethodGet)

	users := r.PathPrefix("/api/users").Subrouter()
	users.Use(s.authenticate)
	users.HandleFunc("/profile", s.handleProfile).Methods(http.MethodGet)
	users.HandleFunc("/profile", s.handleUpdateProfile).Methods(http.MethodPut)

	return r
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
