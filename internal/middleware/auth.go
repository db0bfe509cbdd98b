package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

// ProfileResolver maps a token subject to an internal profile.
type ProfileResolver interface {
	GetByAuthID(ctx context.Context, authID string) (*domain.Profile, error)
	ResolveOrProvision(ctx context.Context, req domain.ResolveOrProvisionRequest) (*domain.Profile, error)
}

// AuthConfig configures the Authenticator middleware.
type AuthConfig struct {
	Validator JWTValidator
	Profiles  ProfileResolver
	// JITProvision creates a profile for a valid token whose subject has none.
	JITProvision bool
	// NameClaim names the claim used as a provisioned profile's display name.
	NameClaim string
	Logger    *slog.Logger
}

// Authenticator validates the Bearer token, resolves the caller's profile and
// stores a domain.ContextPrincipal in the request context. Requests without a
// valid token or a resolvable profile get 401.
func Authenticator(cfg AuthConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "missing bearer token")
				return
			}
			claims, err := cfg.Validator.Validate(r.Context(), token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "error", err, "request_id", RequestIDFromContext(r.Context()))
				writeUnauthorized(w, "invalid token")
				return
			}
			if claims.Subject == "" {
				writeUnauthorized(w, "token has no subject")
				return
			}

			profile, err := resolveProfile(r.Context(), cfg, claims)
			if err != nil {
				var nf *domain.NotFoundError
				if errors.As(err, &nf) {
					writeUnauthorized(w, "no profile for token subject")
					return
				}
				logger.ErrorContext(r.Context(), "profile resolution failed", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := domain.WithPrincipal(r.Context(), domain.ContextPrincipal{
				AuthID:    claims.Subject,
				ProfileID: profile.ID,
				Name:      profile.DisplayName,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveProfile(ctx context.Context, cfg AuthConfig, claims *JWTClaims) (*domain.Profile, error) {
	if cfg.JITProvision {
		return cfg.Profiles.ResolveOrProvision(ctx, domain.ResolveOrProvisionRequest{
			AuthID:      claims.Subject,
			DisplayName: claims.DisplayName(cfg.NameClaim),
		})
	}
	return cfg.Profiles.GetByAuthID(ctx, claims.Subject)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="access"`)
	writeJSONError(w, http.StatusUnauthorized, msg)
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    code,
		"message": msg,
	})
}
