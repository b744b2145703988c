package repo

import (
	"context"
	"errors"

	"ocpinode/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ObjectsRepo struct{ db *pgxpool.Pool }

func NewObjectsRepo(db *pgxpool.Pool) *ObjectsRepo { return &ObjectsRepo{db: db} }

func (r *ObjectsRepo) Upsert(ctx context.Context, obj models.Object) error {
	_, err := r.db.Exec(ctx, `
        insert into objects (module, object_id, country_code, party_id, data, last_updated)
        values ($1,$2,$3,$4,$5, now())
        on conflict (module, object_id) do update set
          country_code=excluded.country_code,
          party_id=excluded.party_id,
          data=excluded.data,
          last_updated=now()
    `, obj.Module, obj.ObjectID, obj.CountryCode, obj.PartyID, obj.DataJSON)
	return err
}

// Patch merges the partial payload into the stored object.
func (r *ObjectsRepo) Patch(ctx context.Context, module, objectID string, partial []byte) error {
	_, err := r.db.Exec(ctx, `
        update objects set data = data || $3::jsonb, last_updated=now()
        where module=$1 and object_id=$2
    `, module, objectID, partial)
	return err
}

func (r *ObjectsRepo) Get(ctx context.Context, module, objectID string) (*models.Object, error) {
	row := r.db.QueryRow(ctx, `
        select module, object_id, country_code, party_id, data, last_updated
        from objects where module=$1 and object_id=$2
    `, module, objectID)

	var obj models.Object
	if err := row.Scan(&obj.Module, &obj.ObjectID, &obj.CountryCode, &obj.PartyID, &obj.DataJSON, &obj.LastUpdated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &obj, nil
}

func (r *ObjectsRepo) List(ctx context.Context, module, dateFrom, dateTo string, offset, limit int) ([]models.Object, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `
        select count(*) from objects
        where module=$1
          and ($2 = '' or last_updated >= $2::timestamptz)
          and ($3 = '' or last_updated < $3::timestamptz)
    `, module, dateFrom, dateTo).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
        select module, object_id, country_code, party_id, data, last_updated
        from objects
        where module=$1
          and ($2 = '' or last_updated >= $2::timestamptz)
          and ($3 = '' or last_updated < $3::timestamptz)
        order by last_updated asc
        offset $4 limit $5
    `, module, dateFrom, dateTo, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Object
	for rows.Next() {
		var obj models.Object
		if err := rows.Scan(&obj.Module, &obj.ObjectID, &obj.CountryCode, &obj.PartyID, &obj.DataJSON, &obj.LastUpdated); err != nil {
			return nil, 0, err
		}
		out = append(out, obj)
	}
	return out, total, rows.Err()
}

func (r *ObjectsRepo) Delete(ctx context.Context, module, objectID string) error {
	_, err := r.db.Exec(ctx, `delete from objects where module=$1 and object_id=$2`, module, objectID)
	return err
}
