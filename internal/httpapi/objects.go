package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ocpinode/internal/core"
)

// Thin pass-through handlers for the module CRUD surface: everything here is
// a direct storage call wrapped in the envelope. The sender side serves GETs
// under the CPO tree; the receiver side accepts pushed objects under EMSP.

func (s *Server) ListLocations(w http.ResponseWriter, r *http.Request) {
	v := pathVersion(r)
	f := paginationFilters(r)
	token, _ := s.authToken(r, v)

	items, total, err := s.Crud.List(r.Context(), core.ModuleLocations, core.RoleCPO, f, core.Params{AuthToken: token, Version: v})
	if err != nil {
		writeServerError(w, "storage error")
		return
	}
	setPaginationHeaders(w, r, f, total)
	if items == nil {
		items = []json.RawMessage{}
	}
	writeOK(w, items)
}

func (s *Server) GetLocation(w http.ResponseWriter, r *http.Request) {
	v := pathVersion(r)
	id := chi.URLParam(r, "objectID")
	token, _ := s.authToken(r, v)

	data, err := s.Crud.Get(r.Context(), core.ModuleLocations, core.RoleCPO, id, core.Params{AuthToken: token, Version: v})
	if err != nil {
		writeServerError(w, "storage error")
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}
	writeOK(w, data)
}

// PutObject stores a pushed full object under the id addressed in the URL.
func (s *Server) PutObject(module core.ModuleID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := pathVersion(r)
		id := chi.URLParam(r, "objectID")
		token, _ := s.authToken(r, v)

		body, err := readAll(r, 2<<20)
		if err != nil || !json.Valid(body) {
			writeEnvelope(w, http.StatusOK, core.NewResponse([]any{}, core.StatusInvalidParams, "malformed object"))
			return
		}
		if _, err := s.Crud.Update(r.Context(), module, core.RoleEMSP, body, id, core.Params{AuthToken: token, Version: v}); err != nil {
			writeServerError(w, "storage error")
			return
		}
		writeOK(w, []any{})
	}
}

// partialUpdater is implemented by backends that can merge a partial payload
// into a stored object. Backends without it get the partial via Update.
type partialUpdater interface {
	Merge(ctx context.Context, module core.ModuleID, id string, partial json.RawMessage) error
}

// PatchObject applies a pushed partial update.
func (s *Server) PatchObject(module core.ModuleID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := pathVersion(r)
		id := chi.URLParam(r, "objectID")
		token, _ := s.authToken(r, v)

		body, err := readAll(r, 2<<20)
		if err != nil || !json.Valid(body) {
			writeEnvelope(w, http.StatusOK, core.NewResponse([]any{}, core.StatusInvalidParams, "malformed object"))
			return
		}

		if pu, ok := s.Crud.(partialUpdater); ok {
			err = pu.Merge(r.Context(), module, id, body)
		} else {
			_, err = s.Crud.Update(r.Context(), module, core.RoleEMSP, body, id, core.Params{AuthToken: token, Version: v})
		}
		if err != nil {
			writeServerError(w, "storage error")
			return
		}
		writeOK(w, []any{})
	}
}

// ReceiveCDR accepts a pushed Charge Detail Record. CDR delivery is a create:
// POST to the module root, a Location header pointing at the stored record,
// and no response payload.
func (s *Server) ReceiveCDR(w http.ResponseWriter, r *http.Request) {
	v := pathVersion(r)
	token, _ := s.authToken(r, v)

	body, err := readAll(r, 2<<20)
	if err != nil || !json.Valid(body) {
		writeEnvelope(w, http.StatusOK, core.NewResponse([]any{}, core.StatusInvalidParams, "malformed cdr"))
		return
	}

	stored, err := s.Crud.Create(r.Context(), core.ModuleCDRs, core.RoleEMSP, body, core.Params{AuthToken: token, Version: v})
	if err != nil {
		writeServerError(w, "storage error")
		return
	}

	var probe struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(stored, &probe)
	if probe.ID != "" {
		w.Header().Set("Location", s.Cfg.BaseURL()+"/emsp/"+string(v)+"/cdrs/"+probe.ID)
	}
	writeOK(w, []any{})
}
