package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ocpinode/internal/config"
	"ocpinode/internal/core"
	"ocpinode/internal/db"
	"ocpinode/internal/models"
	"ocpinode/internal/repo"
)

func main() {
	tokenA := flag.String("token-a", "", "bootstrap Token A to register (generated when empty)")
	locationID := flag.String("location", "LOC1", "demo location id")
	flag.Parse()

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

	token := *tokenA
	if token == "" {
		token = uuid.NewString()
	}
	if err := store.Partners.SaveToken(ctx, token, "A"); err != nil {
		log.Fatal(err)
	}

	if *locationID != "" {
		location, _ := json.Marshal(map[string]any{
			"id":           *locationID,
			"country_code": cfg.CountryCode,
			"party_id":     cfg.PartyID,
			"last_updated": core.Timestamp(),
		})
		err := store.Objects.Upsert(ctx, models.Object{
			Module:      string(core.ModuleLocations),
			ObjectID:    *locationID,
			CountryCode: cfg.CountryCode,
			PartyID:     cfg.PartyID,
			DataJSON:    location,
		})
		if err != nil {
			log.Fatal(err)
		}
	}

	fmt.Println("Seeded token A:", token)
}
