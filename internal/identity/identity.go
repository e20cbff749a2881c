// Package identity mints and resolves the opaque per-device session tokens
// that re-associate reconnecting transports with the same logical player.
package identity

import (
	"crypto/ed25519"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Provider signs identity tokens with a process-local ed25519 keypair.
// Tokens it did not sign are still accepted as opaque identities: the core
// contract only requires uniqueness, not authentication.
type Provider struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// NewProvider generates a fresh keypair. Key generation does not fail under
// normal operation; any error is surfaced so boot can abort.
func NewProvider() (*Provider, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	return &Provider{privateKey: priv, publicKey: pub}, nil
}

// Mint creates a new identity and its signed token. When signing fails the
// raw identity doubles as the token, degrading to a session-scoped opaque
// identity rather than failing the caller.
func (p *Provider) Mint() (id, token string) {
	id = uuid.New().String()

	claims := jwt.MapClaims{"sub": id}
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := t.SignedString(p.privateKey)
	if err != nil {
		return id, id
	}
	return id, signed
}

// Resolve maps a presented token to an identity. A token this provider
// signed resolves to its subject; anything else is used verbatim as an
// opaque identity. Empty tokens resolve to empty.
func (p *Provider) Resolve(token string) string {
	if token == "" {
		return ""
	}

	t, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.publicKey, nil
	})
	if err != nil || !t.Valid {
		return token
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return token
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return token
	}
	return sub
}
