package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ccooksey/bsi-server/internal/apperror"
	"github.com/ccooksey/bsi-server/internal/auth"
)

type contextKey struct{}

var usernameKey = contextKey{}

// authenticate introspects the bearer token on every request so revocations apply at once.
func authenticate(logger *slog.Logger, introspector introspector) mux.MiddlewareFunc {
	log := logger.With("method", "authenticate")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if errors.Is(err, apperror.ErrNoToken) {
				log.Debug("authorization header missing", "path", r.URL.Path)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"authorizationError": "noToken"})
				return
			}

			username, err := introspector.Introspect(r.Context(), token)
			if err != nil || username == "" {
				log.Info("token rejected", "path", r.URL.Path, "error", err)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"authorizationError": "unauthorized"})
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), usernameKey, username)))
		})
	}
}

func usernameFrom(r *http.Request) string {
	username, _ := r.Context().Value(usernameKey).(string)
	return username
}
