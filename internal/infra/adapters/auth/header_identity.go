package auth

import (
	"context"
	"fmt"
	"strings"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/ports/adapter"
)

var _ adapter.IdentityProvider = HeaderIdentity{}

// HeaderIdentity trusts the credential as the user id. Development only.
type HeaderIdentity struct{}

func (HeaderIdentity) Identify(ctx context.Context, token string) (string, error) {
	id := strings.TrimSpace(token)
	if id == "" {
		return "", fmt.Errorf("%w: missing user id", domain.ErrUnauthorized)
	}
	return id, nil
}
