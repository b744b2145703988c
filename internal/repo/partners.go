package repo

import (
	"context"
	"errors"

	"ocpinode/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PartnersRepo struct{ db *pgxpool.Pool }

func NewPartnersRepo(db *pgxpool.Pool) *PartnersRepo { return &PartnersRepo{db: db} }

func (r *PartnersRepo) Upsert(ctx context.Context, reg models.PartnerRegistration) error {
	_, err := r.db.Exec(ctx, `
        insert into partners (party_id, country_code, role, token_c, base_url)
        values ($1,$2,$3,$4,$5)
        on conflict (country_code, party_id) do update set
          role=excluded.role,
          token_c=excluded.token_c,
          base_url=excluded.base_url,
          updated_at=now()
    `, reg.PartyID, reg.CountryCode, reg.Role, reg.TokenC, reg.BaseURL)
	return err
}

func (r *PartnersRepo) Get(ctx context.Context, countryCode, partyID string) (*models.PartnerRegistration, error) {
	row := r.db.QueryRow(ctx, `
        select party_id, country_code, role, token_c, base_url, created_at, updated_at
        from partners where country_code=$1 and party_id=$2
    `, countryCode, partyID)

	var reg models.PartnerRegistration
	if err := row.Scan(&reg.PartyID, &reg.CountryCode, &reg.Role, &reg.TokenC, &reg.BaseURL, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}

// LatestClientToken returns the outbound token of the most recently
// registered partner. A multi-tenant node would key this off the caller.
func (r *PartnersRepo) LatestClientToken(ctx context.Context) (string, error) {
	row := r.db.QueryRow(ctx, `select token_c from partners order by updated_at desc limit 1`)
	var token string
	if err := row.Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

func (r *PartnersRepo) SaveToken(ctx context.Context, token, kind string) error {
	_, err := r.db.Exec(ctx, `
        insert into tokens (token, kind, active) values ($1,$2,true)
        on conflict (token) do update set kind=excluded.kind, active=true
    `, token, kind)
	return err
}

func (r *PartnersRepo) InvalidateToken(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `update tokens set active=false where token=$1`, token)
	return err
}

func (r *PartnersRepo) ActiveTokens(ctx context.Context, kind string) ([]string, error) {
	rows, err := r.db.Query(ctx, `select token from tokens where kind=$1 and active`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
