package middleware

import (
	"context"
	"errors"
	"net"
	"strings"

	"tailtown/internal/common"
	"tailtown/internal/logger"
	"tailtown/internal/metrics"
	"tailtown/internal/models"
	"tailtown/internal/tenancy"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	TenantHeader = "X-Tenant-ID"
	tenantKey    = "tenant"
)

// TenantResolver looks up a tenant by subdomain or id.
type TenantResolver interface {
	Resolve(ctx context.Context, key string) (*models.Tenant, error)
}

// TenantMiddleware resolves the tenant of every request and puts its Scope on the
// request context. Requests that name no tenant, or an unknown one, are rejected.
type TenantMiddleware struct {
	resolver   TenantResolver
	baseDomain string
}

func NewTenantMiddleware(resolver TenantResolver, baseDomain string) *TenantMiddleware {
	return &TenantMiddleware{
		resolver:   resolver,
		baseDomain: strings.ToLower(strings.TrimPrefix(baseDomain, ".")),
	}
}

// hostSubdomain returns the first label of host below the base domain.
func (m *TenantMiddleware) hostSubdomain(host string) string {
	if m.baseDomain == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if !strings.HasSuffix(host, "."+m.baseDomain) {
		return ""
	}
	labels := strings.Split(strings.TrimSuffix(host, "."+m.baseDomain), ".")
	sub := labels[0]
	if sub == "www" || sub == "api" {
		return ""
	}
	return sub
}

func (m *TenantMiddleware) resolve(c echo.Context) (*models.Tenant, error) {
	ctx := c.Request().Context()
	header := strings.ToLower(strings.TrimSpace(c.Request().Header.Get(TenantHeader)))
	sub := m.hostSubdomain(c.Request().Host)

	switch {
	case header == "" && sub == "":
		return nil, &common.TenantError{Kind: common.TenantRequired}
	case header == "":
		return m.resolver.Resolve(ctx, sub)
	}

	tenant, err := m.resolver.Resolve(ctx, header)
	if err != nil {
		return nil, err
	}
	if sub != "" && sub != tenant.Subdomain {
		return nil, &common.TenantError{Kind: common.TenantMismatch, Key: header}
	}
	return tenant, nil
}

// Resolve is the echo middleware.
func (m *TenantMiddleware) Resolve() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenant, err := m.resolve(c)
			if err != nil {
				var te *common.TenantError
				if errors.As(err, &te) {
					metrics.TenantResolutionFailures.WithLabelValues(string(te.Kind)).Inc()
				} else {
					metrics.TenantResolutionFailures.WithLabelValues("error").Inc()
				}
				return err
			}

			scope, err := tenancy.NewScope(tenant.ID, tenant.Subdomain)
			if err != nil {
				return err
			}
			c.Set(tenantKey, tenant)
			c.SetRequest(c.Request().WithContext(tenancy.WithScope(c.Request().Context(), scope)))
			logger.Attach(c, logger.FromEcho(c).With(zap.String("tenant_id", tenant.ID.String())))
			return next(c)
		}
	}
}

// ScopeFrom returns the tenant scope of the request.
func ScopeFrom(c echo.Context) (tenancy.Scope, error) {
	return tenancy.FromContext(c.Request().Context())
}

// TenantFrom returns the tenant resolved for the request, if any.
func TenantFrom(c echo.Context) (*models.Tenant, bool) {
	t, ok := c.Get(tenantKey).(*models.Tenant)
	return t, ok && t != nil
}
