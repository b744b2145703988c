package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"ocpinode/internal/core"
	"ocpinode/internal/pusher"
)

// HTTPPush accepts a push request and synchronizes the object to every
// receiver listed in it. Results come back one per receiver.
func (s *Server) HTTPPush(w http.ResponseWriter, r *http.Request) {
	v := pathVersion(r)

	body, err := readAll(r, 2<<20)
	if err != nil {
		writeServerError(w, "unreadable body")
		return
	}
	var push pusher.Push
	if err := json.Unmarshal(body, &push); err != nil || push.ModuleID == "" {
		writeEnvelope(w, http.StatusOK, core.NewResponse([]any{}, core.StatusInvalidParams, "malformed push request"))
		return
	}

	token, _ := s.authToken(r, v)
	resp := s.Dispatcher.Push(r.Context(), v, push, pusher.Options{AuthToken: token})
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSPush is the persistent-socket variant: the partner keeps one connection
// open and streams push requests over it. Browsers cannot set an
// Authorization header on a WebSocket, so the token rides in the query
// string instead.
func (s *Server) WSPush(w http.ResponseWriter, r *http.Request) {
	v := pathVersion(r)

	// An absent token must stay an empty header so the no-auth escape hatch
	// applies here the same way it does on the HTTP surface.
	token := r.URL.Query().Get("token")
	header := ""
	if token != "" {
		header = "Token " + token
	}
	if err := s.Gateway.Authenticate(r.Context(), header, v); err != nil {
		writeUnauthorized(w)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("push ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var push pusher.Push
		if err := conn.ReadJSON(&push); err != nil {
			return
		}
		resp := s.Dispatcher.Push(r.Context(), v, push, pusher.Options{AuthToken: token})
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}
