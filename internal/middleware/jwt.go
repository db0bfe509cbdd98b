// Package middleware provides HTTP middleware for authentication, request
// tracing and rate limiting.
package middleware

import (
	"context"
	"fmt"
	"slices"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims holds the parsed claims from a validated JWT.
type JWTClaims struct {
	Subject  string
	Issuer   string
	Audience []string
	Email    *string
	Name     *string
	Raw      map[string]interface{}
}

// DisplayName picks a human label for a provisioned profile: the named
// claim if present, then name, then email, then the subject.
func (c *JWTClaims) DisplayName(claim string) string {
	if claim != "" {
		if v, ok := c.Raw[claim].(string); ok && v != "" {
			return v
		}
	}
	if c.Name != nil && *c.Name != "" {
		return *c.Name
	}
	if c.Email != nil && *c.Email != "" {
		return *c.Email
	}
	return c.Subject
}

// JWTValidator validates a JWT token and returns the parsed claims.
type JWTValidator interface {
	Validate(ctx context.Context, tokenString string) (*JWTClaims, error)
}

// OIDCValidator validates JWTs using OIDC discovery and JWKS.
type OIDCValidator struct {
	verifier       *oidc.IDTokenVerifier
	allowedIssuers map[string]bool
}

// NewOIDCValidator creates a validator from an OIDC issuer URL.
func NewOIDCValidator(ctx context.Context, issuerURL, audience string, allowedIssuers []string) (*OIDCValidator, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: audience})
	return &OIDCValidator{verifier: verifier, allowedIssuers: issuerSet(allowedIssuers, issuerURL)}, nil
}

// NewOIDCValidatorFromJWKS creates a validator from a JWKS URL (no OIDC discovery).
func NewOIDCValidatorFromJWKS(ctx context.Context, jwksURL, issuerURL, audience string, allowedIssuers []string) (*OIDCValidator, error) {
	if jwksURL == "" {
		return nil, fmt.Errorf("JWKS URL is required")
	}
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	verifier := oidc.NewVerifier(issuerURL, keySet, &oidc.Config{
		ClientID:          audience,
		SkipClientIDCheck: audience == "",
		SkipIssuerCheck:   issuerURL == "",
	})
	return &OIDCValidator{verifier: verifier, allowedIssuers: issuerSet(allowedIssuers, issuerURL)}, nil
}

func issuerSet(allowed []string, fallback string) map[string]bool {
	issuers := make(map[string]bool, len(allowed)+1)
	for _, iss := range allowed {
		issuers[iss] = true
	}
	if len(issuers) == 0 && fallback != "" {
		issuers[fallback] = true
	}
	return issuers
}

// Validate verifies the JWT using the OIDC provider's JWKS.
func (v *OIDCValidator) Validate(ctx context.Context, tokenString string) (*JWTClaims, error) {
	idToken, err := v.verifier.Verify(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	if len(v.allowedIssuers) > 0 && !v.allowedIssuers[idToken.Issuer] {
		return nil, fmt.Errorf("issuer %q not in allowed list", idToken.Issuer)
	}

	var raw map[string]interface{}
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	claims := claimsFromMap(raw)
	claims.Subject = idToken.Subject
	claims.Issuer = idToken.Issuer
	claims.Audience = idToken.Audience
	return claims, nil
}

// HS256Validator validates JWTs signed with a shared HS256 secret. It is
// meant for local development and tests.
type HS256Validator struct {
	secret   []byte
	audience string
}

// NewHS256Validator creates a validator for HS256 tokens. A non-empty
// audience must appear in the token's aud claim.
func NewHS256Validator(secret, audience string) (*HS256Validator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &HS256Validator{secret: []byte(secret), audience: audience}, nil
}

// Validate verifies a JWT signed with HS256 and extracts claims.
func (v *HS256Validator) Validate(_ context.Context, tokenString string) (*JWTClaims, error) {
	tok, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}

	claims := claimsFromMap(raw)
	if v.audience != "" && !slices.Contains(claims.Audience, v.audience) {
		return nil, fmt.Errorf("token audience %v does not include %q", claims.Audience, v.audience)
	}
	return claims, nil
}

func claimsFromMap(raw map[string]interface{}) *JWTClaims {
	claims := &JWTClaims{Raw: raw}
	if sub, ok := raw["sub"].(string); ok {
		claims.Subject = sub
	}
	if iss, ok := raw["iss"].(string); ok {
		claims.Issuer = iss
	}
	if email, ok := raw["email"].(string); ok {
		claims.Email = &email
	}
	if name, ok := raw["name"].(string); ok {
		claims.Name = &name
	}
	switch aud := raw["aud"].(type) {
	case string:
		claims.Audience = []string{aud}
	case []interface{}:
		for _, a := range aud {
			if s, ok := a.(string); ok {
				claims.Audience = append(claims.Audience, s)
			}
		}
	case []string:
		claims.Audience = aud
	}
	return claims
}
