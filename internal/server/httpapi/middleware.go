package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dberzins/userauth/internal/common"
	"github.com/dberzins/userauth/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(common.AuthorizationHeaderName)
	if header == "" {
		return "", common.ErrMissingToken
	}
	token := strings.TrimPrefix(header, common.BearerPrefix)
	if token == header || token == "" {
		return "", common.ErrMissingToken
	}
	return token, nil
}

// authenticate rejects requests without a valid access token and attaches
// the resolved user to the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		user, err := s.users.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// optionalAuthenticate attaches the user when a valid token is presented
// and lets the request through unauthenticated otherwise.
func (s *Server) optionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, err := bearerToken(r); err == nil {
			if user, err := s.users.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userKey, user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// userFromContext returns the user attached by the authenticate middleware.
func userFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}
