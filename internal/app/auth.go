package app

import (
	"context"
	"errors"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/config"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/middleware"
)

// NewValidator picks the token validator for the configured identity
// provider: OIDC discovery, then a bare JWKS URL, then the HS256 secret.
func NewValidator(ctx context.Context, cfg config.AuthConfig) (middleware.JWTValidator, error) {
	switch {
	case cfg.IssuerURL != "" && cfg.JWKSURL == "":
		return middleware.NewOIDCValidator(ctx, cfg.IssuerURL, cfg.Audience, cfg.AllowedIssuers)
	case cfg.JWKSURL != "":
		return middleware.NewOIDCValidatorFromJWKS(ctx, cfg.JWKSURL, cfg.IssuerURL, cfg.Audience, cfg.AllowedIssuers)
	case cfg.JWTSecret != "":
		return middleware.NewHS256Validator(cfg.JWTSecret, cfg.Audience)
	default:
		return nil, errors.New("no identity provider configured")
	}
}
