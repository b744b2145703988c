package credentials

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"ocpinode/internal/auth"
	"ocpinode/internal/client"
	"ocpinode/internal/core"
	"ocpinode/internal/models"
)

// BusinessDetails is the partner-facing identity block of a credentials role.
type BusinessDetails struct {
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
}

type CredentialsRole struct {
	Role            core.Role       `json:"role"`
	BusinessDetails BusinessDetails `json:"business_details"`
	PartyID         string          `json:"party_id"`
	CountryCode     string          `json:"country_code"`
}

// Credentials is the OCPI credentials object: the token the receiving side
// must use for future calls, the sender's versions URL, and its roles.
type Credentials struct {
	Token string            `json:"token"`
	URL   string            `json:"url"`
	Roles []CredentialsRole `json:"roles"`
}

// Store persists the outcome of a handshake.
type Store interface {
	UpsertPartner(ctx context.Context, reg models.PartnerRegistration) error
	SaveTokenC(ctx context.Context, token string) error
	InvalidateTokenA(ctx context.Context, token string) error
}

// Exchange performs the registration handshake. It is the sole writer of
// partner registrations; concurrent handshakes for the same partner are
// serialized on a per-partner lock.
type Exchange struct {
	Client *client.Client
	Store  Store

	// identity advertised in our credentials
	PartyID     string
	CountryCode string
	Roles       []core.Role
	BaseURL     string
	Name        string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewExchange(c *client.Client, store Store, partyID, countryCode string, roles []core.Role, baseURL, name string) *Exchange {
	return &Exchange{
		Client:      c,
		Store:       store,
		PartyID:     partyID,
		CountryCode: countryCode,
		Roles:       roles,
		BaseURL:     baseURL,
		Name:        name,
		locks:       make(map[string]*sync.Mutex),
	}
}

func (e *Exchange) partnerLock(countryCode, partyID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := countryCode + "/" + partyID
	l, ok := e.locks[key]
	if !ok {
		l = &sync.Mutex{}
		e.locks[key] = l
	}
	return l
}

// OwnCredentials builds the credentials object this node hands to a partner,
// carrying the freshly issued token.
func (e *Exchange) OwnCredentials(token string) Credentials {
	creds := Credentials{
		Token: token,
		URL:   e.BaseURL + "/versions",
	}
	for _, role := range e.Roles {
		creds.Roles = append(creds.Roles, CredentialsRole{
			Role:            role,
			BusinessDetails: BusinessDetails{Name: e.Name},
			PartyID:         e.PartyID,
			CountryCode:     e.CountryCode,
		})
	}
	return creds
}

// Register runs the initiator side of the handshake: discover the partner
// through its versions URL using the one-time Token A, issue a long-lived
// Token C, and persist the registration. Re-running it for the same partner
// replaces the previous registration. Every failure surfaces as ErrHandshake.
func (e *Exchange) Register(ctx context.Context, v core.VersionNumber, discoveryURL, tokenA string, partyID, countryCode string, role core.Role) (*models.PartnerRegistration, error) {
	authHeader := auth.HeaderValue(tokenA, v)
	endpoints, err := e.Client.Endpoints(ctx, discoveryURL, authHeader, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrHandshake, err)
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("%w: partner advertises no endpoints", core.ErrHandshake)
	}

	lock := e.partnerLock(countryCode, partyID)
	lock.Lock()
	defer lock.Unlock()

	tokenC := uuid.NewString()
	if err := e.Store.SaveTokenC(ctx, tokenC); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrHandshake, err)
	}
	reg := models.PartnerRegistration{
		PartyID:     partyID,
		CountryCode: countryCode,
		Role:        string(role),
		TokenC:      tokenC,
		BaseURL:     discoveryURL,
	}
	if err := e.Store.UpsertPartner(ctx, reg); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrHandshake, err)
	}
	if err := e.Store.InvalidateTokenA(ctx, tokenA); err != nil {
		log.Printf("credentials: invalidating token A failed: %v", err)
	}
	return &reg, nil
}

// Accept runs the receiver side: a partner presented its credentials on our
// credentials endpoint. Its versions URL is probed with the token it wants us
// to use, the registration is recorded, and our own credentials with a fresh
// Token C are returned for the partner's future calls.
func (e *Exchange) Accept(ctx context.Context, v core.VersionNumber, partner Credentials, usedTokenA string) (Credentials, error) {
	if partner.Token == "" || partner.URL == "" || len(partner.Roles) == 0 {
		return Credentials{}, fmt.Errorf("%w: incomplete credentials object", core.ErrValidation)
	}
	role := partner.Roles[0]

	authHeader := auth.HeaderValue(partner.Token, v)
	if _, err := e.Client.Endpoints(ctx, partner.URL, authHeader, v); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", core.ErrHandshake, err)
	}

	lock := e.partnerLock(role.CountryCode, role.PartyID)
	lock.Lock()
	defer lock.Unlock()

	issued := uuid.NewString()
	if err := e.Store.SaveTokenC(ctx, issued); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", core.ErrHandshake, err)
	}
	reg := models.PartnerRegistration{
		PartyID:     role.PartyID,
		CountryCode: role.CountryCode,
		Role:        string(role.Role),
		TokenC:      partner.Token,
		BaseURL:     partner.URL,
	}
	if err := e.Store.UpsertPartner(ctx, reg); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", core.ErrHandshake, err)
	}
	if usedTokenA != "" {
		if err := e.Store.InvalidateTokenA(ctx, usedTokenA); err != nil {
			log.Printf("credentials: invalidating token A failed: %v", err)
		}
	}
	return e.OwnCredentials(issued), nil
}
