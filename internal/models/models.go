package models

import (
	"encoding/json"
	"time"
)

// PartnerRegistration is an established partner relationship: created by the
// credentials exchange, read by the push dispatcher and command coordinator.
type PartnerRegistration struct {
	PartyID     string
	CountryCode string
	Role        string
	TokenC      string
	BaseURL     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BootstrapToken is a one-time Token A handed out ahead of a registration
// handshake. Invalidated once the handshake succeeds.
type BootstrapToken struct {
	Token     string
	Active    bool
	CreatedAt time.Time
}

// CommandResult is an out-of-band result reported by the asset layer for a
// dispatched command, waiting to be picked up by the coordinator's poll loop.
type CommandResult struct {
	UID          string
	CommandType  string
	ResponseJSON json.RawMessage
	CreatedAt    time.Time
}

// Object is a stored OCPI module object kept in wire form.
type Object struct {
	Module      string
	ObjectID    string
	CountryCode string
	PartyID     string
	DataJSON    json.RawMessage
	LastUpdated time.Time
}
