package auth

import (
	"context"
	"log"
	"strings"

	"ocpinode/internal/core"
)

// TokenKind reports which token set a credentials-endpoint caller matched.
type TokenKind int

const (
	TokenA TokenKind = iota
	TokenC
)

// CredentialsMatch is the outcome of AuthenticateCredentials. A Token A match
// carries no token (the partner is not registered yet); a Token C match echoes
// the matched token.
type CredentialsMatch struct {
	Kind  TokenKind
	Token string
}

// Gateway validates inbound Authorization headers against a pluggable token
// source. NoAuth is a deployment-wide escape hatch that lets an empty header
// through; it must stay an explicit opt-in.
type Gateway struct {
	Source core.Authenticator
	NoAuth bool
}

func NewGateway(source core.Authenticator, noAuth bool) *Gateway {
	return &Gateway{Source: source, NoAuth: noAuth}
}

// TokenFromHeader splits "Token <value>" and applies the version-conditional
// Base64 decode. A decode failure is not fatal: the raw value is kept so a
// non-conformant partner sending an unencoded token still authenticates.
func TokenFromHeader(header string, v core.VersionNumber) (string, error) {
	parts := strings.Fields(header)
	if len(parts) < 2 {
		return "", core.ErrUnauthorized
	}
	token := parts[1]
	if v == "" || v.RequiresBase64() {
		if decoded, err := DecodeToken(token); err == nil {
			token = decoded
		} else {
			log.Printf("auth: token base64 decode failed, trying raw token")
		}
	}
	return token, nil
}

// Authenticate accepts only established partners (Token C).
func (g *Gateway) Authenticate(ctx context.Context, header string, v core.VersionNumber) error {
	if g.NoAuth && header == "" {
		return nil
	}
	token, err := TokenFromHeader(header, v)
	if err != nil {
		return err
	}
	valid, err := g.Source.ValidTokensC(ctx)
	if err != nil {
		return err
	}
	for _, t := range valid {
		if t == token {
			return nil
		}
	}
	return core.ErrUnauthorized
}

// AuthenticateCredentials accepts either token type on the discovery and
// credentials endpoints and tells the caller which one matched. nil means
// the token is neither A nor C.
func (g *Gateway) AuthenticateCredentials(ctx context.Context, header string, v core.VersionNumber) (*CredentialsMatch, error) {
	token, err := TokenFromHeader(header, v)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}
	tokensA, err := g.Source.ValidTokensA(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tokensA {
		if t == token {
			return &CredentialsMatch{Kind: TokenA}, nil
		}
	}
	tokensC, err := g.Source.ValidTokensC(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tokensC {
		if t == token {
			return &CredentialsMatch{Kind: TokenC, Token: token}, nil
		}
	}
	return nil, nil
}
