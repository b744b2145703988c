package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	Pool *pgxpool.Pool
}

func Connect(ctx context.Context, url string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

// Migrate creates the node's tables when missing.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`create table if not exists tokens (
            token text primary key,
            kind text not null,
            active boolean not null default true,
            created_at timestamptz not null default now()
        )`,
		`create table if not exists partners (
            party_id text not null,
            country_code text not null,
            role text not null,
            token_c text not null,
            base_url text not null,
            created_at timestamptz not null default now(),
            updated_at timestamptz not null default now(),
            primary key (country_code, party_id)
        )`,
		`create table if not exists command_results (
            uid text primary key,
            command_type text not null,
            response jsonb not null,
            created_at timestamptz not null default now()
        )`,
		`create table if not exists objects (
            module text not null,
            object_id text not null,
            country_code text not null default '',
            party_id text not null default '',
            data jsonb not null,
            last_updated timestamptz not null default now(),
            primary key (module, object_id)
        )`,
	}
	for _, stmt := range stmts {
		if _, err := d.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) Close() {
	if d != nil && d.Pool != nil {
		d.Pool.Close()
	}
}
