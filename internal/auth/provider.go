package auth

import (
	"context"
)

// Identity is the result of a successful credential exchange with an
// external identity provider.
type Identity struct {
	ProviderID   string
	Username     string
	Name         string
	Email        string
	Picture      string
	SiteIDs      []uint
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresIn    int
}

// IdentityProvider exchanges a username/password for an identity
// assertion and the set of site ids the identity may access. The local
// token service remains the system of record for the tokens this API
// issues; a provider only authenticates the credential exchange.
type IdentityProvider interface {
	Authenticate(ctx context.Context, username, password string) (*Identity, error)
}
