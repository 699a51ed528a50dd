package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"tailtown/internal/models"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockTenantLister struct {
	mock.Mock
}

func (m *MockTenantLister) ListServing(ctx context.Context) ([]*models.Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

type MockReservationSweeper struct {
	mock.Mock
}

func (m *MockReservationSweeper) ExpirePending(ctx context.Context, scope tenancy.Scope, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, scope, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationSweeper) CompleteCheckedOut(ctx context.Context, scope tenancy.Scope) (int64, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(int64), args.Error(1)
}

type MockTenantCacheWarmer struct {
	mock.Mock
}

func (m *MockTenantCacheWarmer) WarmCache(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func scopeFor(id uuid.UUID) interface{} {
	return mock.MatchedBy(func(s tenancy.Scope) bool { return s.TenantID() == id })
}

func twoTenants() (*models.Tenant, *models.Tenant) {
	return &models.Tenant{ID: uuid.New(), Subdomain: "acme", Status: "active"},
		&models.Tenant{ID: uuid.New(), Subdomain: "paws", Status: "trial"}
}

func TestMaintenance_ExpirePendingFansOutPerTenant(t *testing.T) {
	a, b := twoTenants()
	lister := new(MockTenantLister)
	sweeper := new(MockReservationSweeper)
	lister.On("ListServing", mock.Anything).Return([]*models.Tenant{a, b}, nil)
	sweeper.On("ExpirePending", mock.Anything, scopeFor(a.ID), 48*time.Hour).Return(int64(3), nil)
	sweeper.On("ExpirePending", mock.Anything, scopeFor(b.ID), 48*time.Hour).Return(int64(0), errors.New("db down"))

	m := NewMaintenance(lister, sweeper, new(MockTenantCacheWarmer), 48*time.Hour, zap.NewNop())
	result, err := m.ExpirePendingReservations(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.TenantsProcessed)
	assert.Equal(t, 1, result.TenantsFailed)
	assert.Equal(t, int64(3), result.RowsAffected)
	sweeper.AssertExpectations(t)
}

func TestMaintenance_ExpirePendingDisabled(t *testing.T) {
	lister := new(MockTenantLister)
	sweeper := new(MockReservationSweeper)

	m := NewMaintenance(lister, sweeper, new(MockTenantCacheWarmer), 0, zap.NewNop())
	result, err := m.ExpirePendingReservations(context.Background())

	require.NoError(t, err)
	assert.Zero(t, result.TenantsProcessed)
	lister.AssertNotCalled(t, "ListServing", mock.Anything)
}

func TestMaintenance_CompleteCheckedOut(t *testing.T) {
	a, b := twoTenants()
	lister := new(MockTenantLister)
	sweeper := new(MockReservationSweeper)
	lister.On("ListServing", mock.Anything).Return([]*models.Tenant{a, b}, nil)
	sweeper.On("CompleteCheckedOut", mock.Anything, scopeFor(a.ID)).Return(int64(2), nil)
	sweeper.On("CompleteCheckedOut", mock.Anything, scopeFor(b.ID)).Return(int64(1), nil)

	m := NewMaintenance(lister, sweeper, new(MockTenantCacheWarmer), time.Hour, zap.NewNop())
	result, err := m.CompleteCheckedOutReservations(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.TenantsProcessed)
	assert.Equal(t, int64(3), result.RowsAffected)
}

func TestMaintenance_ListFailure(t *testing.T) {
	lister := new(MockTenantLister)
	lister.On("ListServing", mock.Anything).Return(nil, errors.New("db down"))

	m := NewMaintenance(lister, new(MockReservationSweeper), new(MockTenantCacheWarmer), time.Hour, zap.NewNop())
	_, err := m.CompleteCheckedOutReservations(context.Background())
	assert.Error(t, err)
}

func TestMaintenance_WarmTenantCache(t *testing.T) {
	warmer := new(MockTenantCacheWarmer)
	warmer.On("WarmCache", mock.Anything).Return(4, nil)

	m := NewMaintenance(new(MockTenantLister), new(MockReservationSweeper), warmer, time.Hour, zap.NewNop())
	result, err := m.WarmTenantCache(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, result.TenantsProcessed)
	warmer.AssertExpectations(t)
}
