package auth

import "context"

type contextKey string

// ContextUserKey carries the authenticated *Principal on request contexts.
const ContextUserKey contextKey = "auth.principal"

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	principal, ok := ctx.Value(ContextUserKey).(*Principal)
	return principal, ok
}

// ContextWithPrincipal attaches the principal to the context.
func ContextWithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, ContextUserKey, principal)
}
