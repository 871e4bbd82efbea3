// Package auth resolves bearer credentials into user ids.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"trades-marketplace/internal/domain"
	"trades-marketplace/internal/domain/ports/adapter"
)

var _ adapter.IdentityProvider = (*JWTIdentity)(nil)

// JWTIdentity verifies HS256 tokens signed with a shared secret, such as the
// access tokens Supabase issues. The subject claim is the user id.
type JWTIdentity struct {
	secret []byte
	issuer string
}

func NewJWTIdentity(secret, issuer string) (*JWTIdentity, error) {
	if secret == "" {
		return nil, errors.New("jwt secret empty")
	}
	return &JWTIdentity{secret: []byte(secret), issuer: issuer}, nil
}

func (j *JWTIdentity) Identify(ctx context.Context, token string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return "", fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	return claims.Subject, nil
}

// Mint signs a token for userID; used by tests and local tooling.
func (j *JWTIdentity) Mint(userID string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = userID
	if claims.Issuer == "" {
		claims.Issuer = j.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}
