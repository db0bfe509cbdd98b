package domain

import "context"

type principalKey struct{}

// ContextPrincipal carries the authenticated identity through request context.
// AuthID is the identity provider subject; ProfileID is the internal profile it
// resolved to. Grants and memberships always reference ProfileID.
type ContextPrincipal struct {
	AuthID    string
	ProfileID string
	Name      string
}

// WithPrincipal stores a ContextPrincipal in the context.
func WithPrincipal(ctx context.Context, p ContextPrincipal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the ContextPrincipal from the context.
func PrincipalFromContext(ctx context.Context) (ContextPrincipal, bool) {
	p, ok := ctx.Value(principalKey{}).(ContextPrincipal)
	return p, ok
}
