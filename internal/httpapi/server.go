package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ocpinode/internal/auth"
	"ocpinode/internal/command"
	"ocpinode/internal/config"
	"ocpinode/internal/core"
	"ocpinode/internal/credentials"
	"ocpinode/internal/pusher"
	"ocpinode/internal/version"
)

type Server struct {
	Cfg         config.Config
	Gateway     *auth.Gateway
	Registry    *version.Registry
	Dispatcher  *pusher.Dispatcher
	Coordinator *command.Coordinator
	Exchange    *credentials.Exchange
	Crud        core.Crud
}

func NewServer(cfg config.Config, gw *auth.Gateway, reg *version.Registry, d *pusher.Dispatcher, c *command.Coordinator, e *credentials.Exchange, crud core.Crud) *Server {
	return &Server{Cfg: cfg, Gateway: gw, Registry: reg, Dispatcher: d, Coordinator: c, Exchange: e, Crud: crud}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)

	r.Route("/"+s.Cfg.Prefix, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler { return s.requireCredentialsToken(true, next) })
			r.Get("/versions", s.GetVersions)
			r.Get("/{version}/details", s.GetVersionDetails)
		})

		r.Route("/cpo/{version}", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(func(next http.Handler) http.Handler { return s.requireCredentialsToken(false, next) })
				r.Get("/credentials", s.GetCredentials)
				r.Post("/credentials", s.PostCredentials)
				r.Put("/credentials", s.PostCredentials)
			})
			r.Group(func(r chi.Router) {
				r.Use(s.RequireTokenC)
				r.Post("/commands/{commandType}", s.ReceiveCommand)
				r.Get("/locations", s.ListLocations)
				r.Get("/locations/{objectID}", s.GetLocation)
			})
		})

		r.Route("/emsp/{version}", func(r chi.Router) {
			r.Use(s.RequireTokenC)
			r.Post("/commands/{uid}", s.ReceiveCommandResult)
			r.Put("/locations/{countryCode}/{partyID}/{objectID}", s.PutObject(core.ModuleLocations))
			r.Patch("/locations/{countryCode}/{partyID}/{objectID}", s.PatchObject(core.ModuleLocations))
			r.Put("/sessions/{countryCode}/{partyID}/{objectID}", s.PutObject(core.ModuleSessions))
			r.Patch("/sessions/{countryCode}/{partyID}/{objectID}", s.PatchObject(core.ModuleSessions))
			r.Post("/cdrs", s.ReceiveCDR)
		})
	})

	// Server-initiated synchronization. Advised to keep off the public
	// surface; the WS variant carries the token as a query parameter.
	r.Route("/push", func(r chi.Router) {
		r.With(s.RequireTokenC).Post("/{version}", s.HTTPPush)
		r.Get("/ws/{version}", s.WSPush)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
