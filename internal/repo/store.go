package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"ocpinode/internal/core"
	"ocpinode/internal/models"
)

// Store is the reference Postgres backend: it implements core.Crud and
// core.Authenticator on top of the repos, plus the credentials store. A
// deployment with its own asset layer swaps in its own implementations at
// node construction; nothing in the protocol engine depends on this package.
type Store struct {
	Partners *PartnersRepo
	Commands *CommandsRepo
	Objects  *ObjectsRepo
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		Partners: NewPartnersRepo(db),
		Commands: NewCommandsRepo(db),
		Objects:  NewObjectsRepo(db),
	}
}

func (s *Store) Get(ctx context.Context, module core.ModuleID, role core.Role, id string, p core.Params) (json.RawMessage, error) {
	if module == core.ModuleCommands {
		res, err := s.Commands.PopResult(ctx, p.Command)
		if err != nil || res == nil {
			return nil, err
		}
		return res.ResponseJSON, nil
	}
	obj, err := s.Objects.Get(ctx, string(module), id)
	if err != nil || obj == nil {
		return nil, err
	}
	return obj.DataJSON, nil
}

func (s *Store) List(ctx context.Context, module core.ModuleID, role core.Role, f core.ListFilters, p core.Params) ([]json.RawMessage, int, error) {
	objs, total, err := s.Objects.List(ctx, string(module), f.DateFrom, f.DateTo, f.Offset, f.Limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]json.RawMessage, 0, len(objs))
	for _, obj := range objs {
		out = append(out, obj.DataJSON)
	}
	return out, total, nil
}

func (s *Store) Create(ctx context.Context, module core.ModuleID, role core.Role, data json.RawMessage, p core.Params) (json.RawMessage, error) {
	id := objectID(data)
	if id == "" {
		id = uuid.NewString()
	}
	err := s.Objects.Upsert(ctx, models.Object{Module: string(module), ObjectID: id, DataJSON: data})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) Update(ctx context.Context, module core.ModuleID, role core.Role, data json.RawMessage, id string, p core.Params) (json.RawMessage, error) {
	if module == core.ModuleCommands {
		err := s.Commands.SaveResult(ctx, models.CommandResult{
			UID:          id,
			CommandType:  p.Command,
			ResponseJSON: data,
		})
		return data, err
	}
	err := s.Objects.Upsert(ctx, models.Object{Module: string(module), ObjectID: id, DataJSON: data})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Merge applies a partial update to a stored object.
func (s *Store) Merge(ctx context.Context, module core.ModuleID, id string, partial json.RawMessage) error {
	return s.Objects.Patch(ctx, string(module), id, partial)
}

func (s *Store) Delete(ctx context.Context, module core.ModuleID, role core.Role, id string, p core.Params) error {
	return s.Objects.Delete(ctx, string(module), id)
}

func (s *Store) Do(ctx context.Context, module core.ModuleID, role core.Role, action core.Action, payload json.RawMessage, p core.Params) (json.RawMessage, error) {
	switch action {
	case core.ActionSendCommand:
		// The reference backend has no asset bus of its own; the dispatch is
		// acknowledged and the result arrives out of band on the command
		// result endpoint.
		return json.RawMessage(`{"result":"ACCEPTED"}`), nil
	case core.ActionGetClientToken:
		token, err := s.Partners.LatestClientToken(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(token)
	}
	return nil, fmt.Errorf("unknown action %q", action)
}

// core.Authenticator

func (s *Store) ValidTokensC(ctx context.Context) ([]string, error) {
	return s.Partners.ActiveTokens(ctx, "C")
}

func (s *Store) ValidTokensA(ctx context.Context) ([]string, error) {
	return s.Partners.ActiveTokens(ctx, "A")
}

// credentials.Store

func (s *Store) UpsertPartner(ctx context.Context, reg models.PartnerRegistration) error {
	return s.Partners.Upsert(ctx, reg)
}

func (s *Store) SaveTokenC(ctx context.Context, token string) error {
	return s.Partners.SaveToken(ctx, token, "C")
}

func (s *Store) InvalidateTokenA(ctx context.Context, token string) error {
	return s.Partners.InvalidateToken(ctx, token)
}

func objectID(data json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(data, &probe)
	return probe.ID
}
