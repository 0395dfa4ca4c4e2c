package plugin

import "context"

// Scope is the tenant and region a tenant scoped request was resolved to.
type Scope struct {
	TenantID string
	Region   string
	Prefix   string
}

type scopeKey struct{}

// WithScope stores s in ctx.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom returns the scope stored in ctx, if any.
func ScopeFrom(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(Scope)
	return s, ok
}
