package core

import (
	"context"
	"encoding/json"
)

// Params carries per-call context into the storage backend.
type Params struct {
	AuthToken   string
	Version     VersionNumber
	Command     string
	CommandData json.RawMessage
}

// ListFilters are the standard OCPI pagination query parameters.
type ListFilters struct {
	DateFrom string
	DateTo   string
	Offset   int
	Limit    int
}

// Crud is the pluggable storage backend. Implementations are injected at node
// construction; the protocol engine never touches a database directly.
// Get and List return nil (not an error) when the object is absent.
type Crud interface {
	Get(ctx context.Context, module ModuleID, role Role, id string, p Params) (json.RawMessage, error)
	List(ctx context.Context, module ModuleID, role Role, f ListFilters, p Params) ([]json.RawMessage, int, error)
	Create(ctx context.Context, module ModuleID, role Role, data json.RawMessage, p Params) (json.RawMessage, error)
	Update(ctx context.Context, module ModuleID, role Role, data json.RawMessage, id string, p Params) (json.RawMessage, error)
	Delete(ctx context.Context, module ModuleID, role Role, id string, p Params) error
	Do(ctx context.Context, module ModuleID, role Role, action Action, payload json.RawMessage, p Params) (json.RawMessage, error)
}

// Authenticator is the pluggable token source behind the auth gateway.
// Token C authenticates established partners; Token A is only valid during
// the registration handshake.
type Authenticator interface {
	ValidTokensC(ctx context.Context) ([]string, error)
	ValidTokensA(ctx context.Context) ([]string, error)
}

// Adapter reshapes a stored object into the wire form of a given version
// before a full-update push. PassthroughAdapter serves nodes that store
// objects already in wire form.
type Adapter interface {
	Adapt(module ModuleID, data json.RawMessage, v VersionNumber) (json.RawMessage, error)
}

type PassthroughAdapter struct{}

func (PassthroughAdapter) Adapt(_ ModuleID, data json.RawMessage, _ VersionNumber) (json.RawMessage, error) {
	return data, nil
}
