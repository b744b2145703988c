package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ocpinode/internal/command"
	"ocpinode/internal/core"
)

// ReceiveCommand handles an inbound command from a partner. The sender gets
// an immediate ACCEPTED/REJECTED envelope; when accepted, the coordinator
// keeps polling for the asset's result in the background and later POSTs it
// to the command's response_url.
func (s *Server) ReceiveCommand(w http.ResponseWriter, r *http.Request) {
	v := pathVersion(r)
	cmdType, ok := command.ParseType(chi.URLParam(r, "commandType"), v)
	if !ok {
		http.NotFound(w, r)
		return
	}

	body, err := readAll(r, 1<<20)
	if err != nil {
		writeServerError(w, "unreadable body")
		return
	}

	token, _ := s.authToken(r, v)
	resp, status, err := s.Coordinator.Receive(r.Context(), v, cmdType, body, token)
	if err != nil {
		writeEnvelope(w, http.StatusOK, core.NewResponse([]any{}, core.StatusInvalidParams, err.Error()))
		return
	}
	writeEnvelope(w, http.StatusOK, core.NewResponse([]any{resp}, status, ""))
}

// ReceiveCommandResult handles the partner's asynchronous result callback for
// a command this node sent earlier. The body is handed to the backend keyed
// by the command uid.
func (s *Server) ReceiveCommandResult(w http.ResponseWriter, r *http.Request) {
	v := pathVersion(r)
	uid := chi.URLParam(r, "uid")

	body, err := readAll(r, 1<<20)
	if err != nil {
		writeServerError(w, "unreadable body")
		return
	}

	token, _ := s.authToken(r, v)
	if _, err := s.Crud.Update(r.Context(), core.ModuleCommands, core.RoleEMSP, body, uid, core.Params{AuthToken: token, Version: v}); err != nil {
		writeServerError(w, "storing command result failed")
		return
	}
	writeOK(w, []any{})
}
