package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ocpinode/internal/auth"
	"ocpinode/internal/client"
	"ocpinode/internal/command"
	"ocpinode/internal/config"
	"ocpinode/internal/credentials"
	"ocpinode/internal/db"
	"ocpinode/internal/httpapi"
	"ocpinode/internal/pusher"
	"ocpinode/internal/repo"
	"ocpinode/internal/version"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer d.Close()
	if err := d.Migrate(ctx); err != nil {
		log.Fatal(err)
	}

	store := repo.NewStore(d.Pool)
	gateway := auth.NewGateway(store, cfg.NoAuth)
	registry := version.NewRegistry(cfg.BaseURL(), cfg.Versions, cfg.Roles, cfg.Modules)
	httpc := client.New(cfg.ClientTimeout)

	dispatcher := pusher.NewDispatcher(httpc, store, nil, cfg.CountryCode, cfg.PartyID)
	coordinator := command.NewCoordinator(store, httpc, cfg.CommandAwaitTime)
	exchange := credentials.NewExchange(httpc, store, cfg.PartyID, cfg.CountryCode, cfg.Roles, cfg.BaseURL(), cfg.Host)

	srv := httpapi.NewServer(cfg, gateway, registry, dispatcher, coordinator, exchange, store)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Println("OCPI node listening on", cfg.ListenAddr)
		log.Fatal(httpServer.ListenAndServe())
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = httpServer.Shutdown(ctx2)
	coordinator.Wait()
	log.Println("OCPI node shutdown complete")
}
