package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"ocpinode/internal/auth"
	"ocpinode/internal/core"
	"ocpinode/internal/credentials"
)

// GetCredentials returns this node's credentials object. The token field
// echoes the caller's Token C when that is what they presented; a partner
// mid-handshake (Token A) sees no token yet.
func (s *Server) GetCredentials(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if s.Cfg.NoAuth && header == "" {
		writeOK(w, s.Exchange.OwnCredentials(""))
		return
	}
	match, err := s.Gateway.AuthenticateCredentials(r.Context(), header, pathVersion(r))
	if err != nil || match == nil {
		writeUnauthorized(w)
		return
	}
	writeOK(w, s.Exchange.OwnCredentials(match.Token))
}

// PostCredentials is the receiver side of the registration handshake: the
// partner submits its credentials, we verify its discovery surface, register
// it, and answer with our credentials carrying a fresh Token C. POST and PUT
// share this path; re-registration replaces the stored partner.
func (s *Server) PostCredentials(w http.ResponseWriter, r *http.Request) {
	v := pathVersion(r)
	header := r.Header.Get("Authorization")
	var match *auth.CredentialsMatch
	if !s.Cfg.NoAuth || header != "" {
		var err error
		match, err = s.Gateway.AuthenticateCredentials(r.Context(), header, v)
		if err != nil || match == nil {
			writeUnauthorized(w)
			return
		}
	}

	body, err := readAll(r, 1<<20)
	if err != nil {
		writeServerError(w, "unreadable body")
		return
	}
	var partner credentials.Credentials
	if err := json.Unmarshal(body, &partner); err != nil {
		writeEnvelope(w, http.StatusOK, core.NewResponse([]any{}, core.StatusInvalidParams, "malformed credentials object"))
		return
	}

	// A successful handshake burns the one-time Token A the partner used.
	var usedTokenA string
	if match != nil && match.Kind == auth.TokenA {
		usedTokenA, _ = auth.TokenFromHeader(header, v)
	}

	ours, err := s.Exchange.Accept(r.Context(), v, partner, usedTokenA)
	if err != nil {
		log.Printf("credentials exchange failed: %v", err)
		if errors.Is(err, core.ErrValidation) {
			writeEnvelope(w, http.StatusOK, core.NewResponse([]any{}, core.StatusInvalidParams, err.Error()))
			return
		}
		writeServerError(w, "credentials handshake failed")
		return
	}
	writeOK(w, ours)
}
