package repo

import (
	"context"
	"errors"

	"ocpinode/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CommandsRepo struct{ db *pgxpool.Pool }

func NewCommandsRepo(db *pgxpool.Pool) *CommandsRepo { return &CommandsRepo{db: db} }

func (r *CommandsRepo) SaveResult(ctx context.Context, res models.CommandResult) error {
	_, err := r.db.Exec(ctx, `
        insert into command_results (uid, command_type, response)
        values ($1,$2,$3)
        on conflict (uid) do update set response=excluded.response
    `, res.UID, res.CommandType, res.ResponseJSON)
	return err
}

// PopResult hands out the oldest pending result for a command type exactly
// once: the row is deleted as it is read.
func (r *CommandsRepo) PopResult(ctx context.Context, commandType string) (*models.CommandResult, error) {
	row := r.db.QueryRow(ctx, `
        delete from command_results
        where uid = (
            select uid from command_results
            where command_type=$1
            order by created_at asc limit 1
        )
        returning uid, command_type, response, created_at
    `, commandType)

	var res models.CommandResult
	if err := row.Scan(&res.UID, &res.CommandType, &res.ResponseJSON, &res.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}
