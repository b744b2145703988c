package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ocpinode/internal/auth"
	"ocpinode/internal/core"
)

// RequestID implements the OCPI tracing headers: every response carries an
// X-Request-ID (generated when the caller sent none) and X-Correlation-ID is
// echoed only if the caller supplied one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		if correlationID := r.Header.Get("X-Correlation-ID"); correlationID != "" {
			w.Header().Set("X-Correlation-ID", correlationID)
		}
		next.ServeHTTP(w, r)
	})
}

// authToken extracts the caller's token for storage-backend calls.
func (s *Server) authToken(r *http.Request, v core.VersionNumber) (string, error) {
	return auth.TokenFromHeader(r.Header.Get("Authorization"), v)
}

func pathVersion(r *http.Request) core.VersionNumber {
	v, _ := core.ParseVersion(chi.URLParam(r, "version"))
	return v
}

// RequireTokenC guards server-to-server endpoints: established partners only.
// Invalid and malformed tokens get 403.
func (s *Server) RequireTokenC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := pathVersion(r)
		if err := s.Gateway.Authenticate(r.Context(), r.Header.Get("Authorization"), v); err != nil {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireCredentialsToken guards the discovery and credentials endpoints
// where Token A and Token C are both acceptable. A missing header is 401
// (distinct from the 403 for invalid tokens) unless auth-optional discovery
// is on and the endpoint is a discovery one.
func (s *Server) requireCredentialsToken(discovery bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			if (discovery && s.Cfg.AuthOptionalDiscovery) || s.Cfg.NoAuth {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		match, err := s.Gateway.AuthenticateCredentials(r.Context(), header, pathVersion(r))
		if err != nil {
			writeUnauthorized(w)
			return
		}
		if match == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
