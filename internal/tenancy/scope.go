// Package tenancy carries the resolved tenant through a request.
//
// Repositories for tenant-owned tables take a Scope rather than a bare id, so a
// query cannot be issued without a tenant having been resolved first.
package tenancy

import (
	"context"

	"tailtown/internal/common"

	"github.com/google/uuid"
)

// Scope identifies the tenant every query of a request is restricted to.
type Scope struct {
	tenantID  uuid.UUID
	subdomain string
}

// NewScope returns a scope for tenantID. uuid.Nil is rejected.
func NewScope(tenantID uuid.UUID, subdomain string) (Scope, error) {
	if tenantID == uuid.Nil {
		return Scope{}, common.ErrMissingTenantScope
	}
	return Scope{tenantID: tenantID, subdomain: subdomain}, nil
}

// MustScope is NewScope for ids known to be valid, such as rows read back from the tenants table.
func MustScope(tenantID uuid.UUID, subdomain string) Scope {
	s, err := NewScope(tenantID, subdomain)
	if err != nil {
		panic(err)
	}
	return s
}

// TenantID returns the scoped tenant id.
func (s Scope) TenantID() uuid.UUID { return s.tenantID }

// Subdomain returns the tenant subdomain the scope was resolved from.
func (s Scope) Subdomain() string { return s.subdomain }

// Valid reports whether the scope was built through NewScope.
func (s Scope) Valid() bool { return s.tenantID != uuid.Nil }

// Require returns the tenant id or ErrMissingTenantScope for a zero Scope.
func (s Scope) Require() (uuid.UUID, error) {
	if !s.Valid() {
		return uuid.Nil, common.ErrMissingTenantScope
	}
	return s.tenantID, nil
}

type ctxKey struct{}

// WithScope stores s on ctx.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the scope placed on ctx by the tenant middleware.
func FromContext(ctx context.Context) (Scope, error) {
	s, ok := ctx.Value(ctxKey{}).(Scope)
	if !ok || !s.Valid() {
		return Scope{}, common.ErrMissingTenantScope
	}
	return s, nil
}
