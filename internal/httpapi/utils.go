package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"ocpinode/internal/core"
)

func readAll(r *http.Request, limit int64) ([]byte, error) {
	body := http.MaxBytesReader(nil, r.Body, limit)
	defer body.Close()
	return io.ReadAll(body)
}

// writeEnvelope writes an OCPIResponse. Protocol-level failures still ride
// on HTTP 200; only auth and not-found failures use 4xx.
func writeEnvelope(w http.ResponseWriter, httpStatus int, resp core.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeOK(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, core.OK(data))
}

func writeServerError(w http.ResponseWriter, message string) {
	writeEnvelope(w, http.StatusOK, core.NewResponse([]any{}, core.StatusServerError, message))
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": "invalid or missing token"})
}

func paginationFilters(r *http.Request) core.ListFilters {
	q := r.URL.Query()
	f := core.ListFilters{
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
		Limit:    50,
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	return f
}

// setPaginationHeaders adds Link, X-Total-Count and X-Limit to a list
// response. Link points at the next page only when one exists.
func setPaginationHeaders(w http.ResponseWriter, r *http.Request, f core.ListFilters, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	w.Header().Set("X-Limit", strconv.Itoa(f.Limit))
	if f.Offset+f.Limit < total {
		q := r.URL.Query()
		q.Set("offset", strconv.Itoa(f.Offset+f.Limit))
		q.Set("limit", strconv.Itoa(f.Limit))
		w.Header().Set("Link", `<`+r.URL.Path+`?`+q.Encode()+`>; rel="next"`)
	}
}
