package jobs

import (
	"context"
	"sync"
	"time"

	"tailtown/internal/models"
	"tailtown/internal/tenancy"

	"go.uber.org/zap"
)

const maxTenantConcurrency = 5

// TenantLister returns tenants whose data background jobs should touch.
type TenantLister interface {
	ListServing(ctx context.Context) ([]*models.Tenant, error)
}

// ReservationSweeper moves reservations along when time passes.
type ReservationSweeper interface {
	ExpirePending(ctx context.Context, scope tenancy.Scope, olderThan time.Duration) (int64, error)
	CompleteCheckedOut(ctx context.Context, scope tenancy.Scope) (int64, error)
}

// TenantCacheWarmer reloads serving tenants into the resolver cache.
type TenantCacheWarmer interface {
	WarmCache(ctx context.Context) (int, error)
}

// SweepResult summarizes one run across tenants.
type SweepResult struct {
	TenantsProcessed int   `json:"tenants_processed"`
	TenantsFailed    int   `json:"tenants_failed"`
	RowsAffected     int64 `json:"rows_affected"`
}

// Maintenance runs the periodic per-tenant housekeeping.
type Maintenance struct {
	tenants       TenantLister
	reservations  ReservationSweeper
	cache         TenantCacheWarmer
	pendingExpiry time.Duration
	log           *zap.Logger
}

func NewMaintenance(tenants TenantLister, reservations ReservationSweeper, cache TenantCacheWarmer,
	pendingExpiry time.Duration, log *zap.Logger) *Maintenance {
	return &Maintenance{
		tenants:       tenants,
		reservations:  reservations,
		cache:         cache,
		pendingExpiry: pendingExpiry,
		log:           log,
	}
}

// ExpirePendingReservations cancels PENDING reservations older than the configured expiry.
func (m *Maintenance) ExpirePendingReservations(ctx context.Context) (*SweepResult, error) {
	if m.pendingExpiry <= 0 {
		return &SweepResult{}, nil
	}
	return m.forEachTenant(ctx, "expire-pending", func(ctx context.Context, scope tenancy.Scope) (int64, error) {
		return m.reservations.ExpirePending(ctx, scope, m.pendingExpiry)
	})
}

// CompleteCheckedOutReservations closes out stays that have been checked out.
func (m *Maintenance) CompleteCheckedOutReservations(ctx context.Context) (*SweepResult, error) {
	return m.forEachTenant(ctx, "complete-checked-out", m.reservations.CompleteCheckedOut)
}

// WarmTenantCache reloads every serving tenant into the resolver cache.
func (m *Maintenance) WarmTenantCache(ctx context.Context) (*SweepResult, error) {
	warmed, err := m.cache.WarmCache(ctx)
	if err != nil {
		return nil, err
	}
	return &SweepResult{TenantsProcessed: warmed}, nil
}

func (m *Maintenance) forEachTenant(ctx context.Context, name string,
	fn func(ctx context.Context, scope tenancy.Scope) (int64, error)) (*SweepResult, error) {
	tenants, err := m.tenants.ListServing(ctx)
	if err != nil {
		m.log.Error("failed to list tenants", zap.String("job", name), zap.Error(err))
		return nil, err
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result SweepResult
	)
	semaphore := make(chan struct{}, maxTenantConcurrency)

	for _, t := range tenants {
		scope, err := tenancy.NewScope(t.ID, t.Subdomain)
		if err != nil {
			continue
		}
		wg.Add(1)
		go func(scope tenancy.Scope) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			n, err := fn(ctx, scope)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.TenantsFailed++
				m.log.Error("tenant job failed",
					zap.String("job", name),
					zap.String("tenant_id", scope.TenantID().String()),
					zap.Error(err),
				)
				return
			}
			result.TenantsProcessed++
			result.RowsAffected += n
		}(scope)
	}
	wg.Wait()

	m.log.Info("tenant job completed",
		zap.String("job", name),
		zap.Int("tenants", result.TenantsProcessed),
		zap.Int("failed", result.TenantsFailed),
		zap.Int64("rows", result.RowsAffected),
	)
	return &result, nil
}
