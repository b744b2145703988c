package httpapi

import (
	"net/http"
)

func (s *Server) GetVersions(w http.ResponseWriter, r *http.Request) {
	writeOK(w, s.Registry.Versions())
}

func (s *Server) GetVersionDetails(w http.ResponseWriter, r *http.Request) {
	v := pathVersion(r)
	detail, ok := s.Registry.Details(v)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeOK(w, detail)
}
