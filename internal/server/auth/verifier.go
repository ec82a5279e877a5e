package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mediavault/mediavault/internal/common"
)

// Claims is what the rest of the server sees of a verified identity token.
type Claims struct {
	Subject  string
	Email    string
	Name     string
	Username string
}

// identityClaims is the raw claim set carried by provider ID tokens.
type identityClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"preferred_username"`
	TokenUse string `json:"token_use"`
}

// Verifier checks identity tokens against the cached provider keys.
type Verifier struct {
	cache    *KeyCache
	issuer   string
	audience string
}

func NewVerifier(cache *KeyCache, issuer, audience string) *Verifier {
	return &Verifier{cache: cache, issuer: issuer, audience: audience}
}

// Verify parses and validates tokenString. Expired tokens map to
// common.ErrTokenExpired; every other failure maps to common.ErrInvalidToken
// without relaying the parser's detail to callers.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &identityClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: missing kid header", common.ErrInvalidToken)
		}
		return v.cache.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	// Only ID tokens carry the profile claims the server relies on.
	if claims.TokenUse != "" && claims.TokenUse != "id" {
		return nil, fmt.Errorf("%w: unexpected token use %q", common.ErrInvalidToken, claims.TokenUse)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: missing identity claims", common.ErrInvalidToken)
	}

	name := claims.Name
	if name == "" {
		name = "Unknown"
	}

	return &Claims{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Name:     name,
		Username: claims.Username,
	}, nil
}
