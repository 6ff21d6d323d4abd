package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/getsentry/sentry-go"

	"github.com/dberzins/userauth/internal/common"
	"github.com/dberzins/userauth/internal/server/models"
)

const minPasswordLength = 8

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// response is the envelope every endpoint answers with.
type response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// authPayload is the data block returned by register and login.
type authPayload struct {
	User         *models.SafeUser `json:"user"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, response{Success: true, Message: "Server is running"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if problems := validateRegister(&req); len(problems) > 0 {
		s.writeValidation(w, problems)
		return
	}

	user, pair, err := s.users.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "email", user.Email)
	s.writeJSON(w, http.StatusCreated, response{
		Success: true,
		Message: "User registered successfully",
		Data: authPayload{
			User:         user.Safe(),
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		s.writeValidation(w, []string{"email and password are required"})
		return
	}

	user, pair, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user logged in", "email", user.Email)
	s.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Login successful",
		Data: authPayload{
			User:         user.Safe(),
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		},
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		s.writeJSON(w, http.StatusUnauthorized, response{Success: false, Message: "Refresh token is required"})
		return
	}

	pair, err := s.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Token refreshed successfully",
		Data: map[string]string{
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrMissingToken)
		return
	}

	var req tokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.RefreshToken != "" {
		if err := s.users.Logout(r.Context(), user.ID, req.RefreshToken); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	s.logger.Info(r.Context(), "user logged out", "email", user.Email)
	s.writeJSON(w, http.StatusOK, response{Success: true, Message: "Logout successful"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrMissingToken)
		return
	}

	current, err := s.users.Profile(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, response{
		Success: true,
		Data:    map[string]*models.SafeUser{"user": current.Safe()},
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Profile update functionality coming soon",
	})
}

// decode reads the JSON body into dst, answering 400 on malformed input.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Invalid request body"})
		return false
	}
	return true
}

func validateRegister(req *registerRequest) []string {
	var problems []string
	if !emailRx.MatchString(req.Email) {
		problems = append(problems, "a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		problems = append(problems, "password must be at least 8 characters long")
	}
	if strings.TrimSpace(req.FirstName) == "" {
		problems = append(problems, "firstName is required")
	}
	if strings.TrimSpace(req.LastName) == "" {
		problems = append(problems, "lastName is required")
	}
	return problems
}

func (s *Server) writeValidation(w http.ResponseWriter, problems []string) {
	s.writeJSON(w, http.StatusBadRequest, response{
		Success: false,
		Message: "Validation error",
		Errors:  problems,
	})
}

// writeError maps a service error to a status and client-safe message.
// Internal failures are logged with full detail, reported to sentry when
// it is configured, and answered with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, common.ErrEmailAlreadyExists):
		status, message = http.StatusConflict, "User with this email already exists"
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrMissingToken),
		errors.Is(err, common.ErrUnknownUser):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, common.ErrorNotFound):
		status, message = http.StatusNotFound, "User not found"
	case errors.Is(err, common.ErrStorageUnavailable):
		status, message = http.StatusServiceUnavailable, "Storage temporarily unavailable"
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		sentry.CaptureException(err)
	} else {
		s.logger.Warn(r.Context(), "request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	s.writeJSON(w, status, response{Success: false, Message: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error(context.Background(), "encode response", "error", err)
	}
}
