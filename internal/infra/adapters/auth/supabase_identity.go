package auth

import (
	"context"
	"errors"
	"fmt"

	supabase "github.com/nedpals/supabase-go"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/ports/adapter"
)

var _ adapter.IdentityProvider = (*SupabaseIdentity)(nil)

// SupabaseIdentity asks the Supabase auth server who owns a token.
type SupabaseIdentity struct {
	client *supabase.Client
}

func NewSupabaseIdentity(url, key string) (*SupabaseIdentity, error) {
	if url == "" || key == "" {
		return nil, errors.New("supabase url and key must be provided")
	}
	return &SupabaseIdentity{client: supabase.CreateClient(url, key)}, nil
}

func (s *SupabaseIdentity) Identify(ctx context.Context, token string) (string, error) {
	user, err := s.client.Auth.User(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if user == nil || user.ID == "" {
		return "", fmt.Errorf("%w: unknown user", domain.ErrUnauthorized)
	}
	return user.ID, nil
}
