package adapter

import "context"

// IdentityProvider resolves a bearer credential into the caller's user id.
// Implementations return domain.ErrUnauthorized for rejected credentials.
type IdentityProvider interface {
	Identify(ctx context.Context, token string) (userID string, err error)
}
