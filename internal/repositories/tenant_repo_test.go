package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var tenantCols = []string{"id", "name", "subdomain", "status", "contact_email", "timezone", "created_at", "updated_at"}

type TenantRepoTestSuite struct {
	suite.Suite
	mock pgxmock.PgxPoolIface
	repo TenantRepository
	ctx  context.Context
}

func (s *TenantRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(s.T(), err)
	s.mock = mock
	s.repo = NewTenantRepo(mock)
	s.ctx = context.Background()
}

func (s *TenantRepoTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
	s.mock.Close()
}

func TestTenantRepoTestSuite(t *testing.T) {
	suite.Run(t, new(TenantRepoTestSuite))
}

func (s *TenantRepoTestSuite) TestGetBySubdomain_ExactMatch() {
	id := uuid.New()
	s.mock.ExpectQuery(`FROM tenants WHERE subdomain = \$1`).
		WithArgs("acme").
		WillReturnRows(pgxmock.NewRows(tenantCols).
			AddRow(id, "Acme Pet Resort", "acme", models.TenantStatusActive, stringPtr("ops@acme.test"), "UTC", time.Now(), time.Now()))

	tenant, err := s.repo.GetBySubdomain(s.ctx, "acme")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), id, tenant.ID)
	assert.Equal(s.T(), "ops@acme.test", *tenant.ContactEmail)
}

func (s *TenantRepoTestSuite) TestGetBySubdomain_NotFound() {
	s.mock.ExpectQuery(`FROM tenants WHERE subdomain = \$1`).
		WithArgs("acme2").
		WillReturnRows(pgxmock.NewRows(tenantCols))

	_, err := s.repo.GetBySubdomain(s.ctx, "acme2")
	assert.ErrorIs(s.T(), err, common.ErrTenantNotFound)
}

func (s *TenantRepoTestSuite) TestCreate_SeedsSettings() {
	tenant := &models.Tenant{ID: uuid.New(), Name: "Acme", Subdomain: "acme", Status: models.TenantStatusTrial, Timezone: "UTC"}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(`INSERT INTO tenants`).
		WithArgs(tenant.ID, tenant.Name, tenant.Subdomain, tenant.Status, tenant.ContactEmail, tenant.Timezone).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	s.mock.ExpectExec(`INSERT INTO tenant_settings`).
		WithArgs(tenant.ID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	s.mock.ExpectCommit()

	assert.NoError(s.T(), s.repo.Create(s.ctx, tenant))
}

func (s *TenantRepoTestSuite) TestCreate_DuplicateSubdomainIsConflict() {
	tenant := &models.Tenant{ID: uuid.New(), Name: "Acme", Subdomain: "acme", Status: models.TenantStatusTrial, Timezone: "UTC"}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(`INSERT INTO tenants`).
		WithArgs(tenant.ID, tenant.Name, tenant.Subdomain, tenant.Status, tenant.ContactEmail, tenant.Timezone).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	s.mock.ExpectRollback()

	err := s.repo.Create(s.ctx, tenant)
	var conflict *common.ConflictError
	require.True(s.T(), errors.As(err, &conflict))
	assert.Equal(s.T(), "tenant already exists", conflict.Message)
}

func (s *TenantRepoTestSuite) TestGetSettings_DefaultsWhenMissing() {
	tenantID := uuid.New()
	s.mock.ExpectQuery(`FROM tenant_settings`).
		WithArgs(tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"tenant_id"}))

	settings, err := s.repo.GetSettings(s.ctx, tenancy.MustScope(tenantID, "acme"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), tenantID, settings.TenantID)
	assert.Equal(s.T(), models.PricingMatchFirst, settings.PricingMatchMode)
}

func (s *TenantRepoTestSuite) TestGetSettings_Stored() {
	tenantID := uuid.New()
	policy := models.RefundPolicy{Type: models.RefundTypeTiered, Tiers: []models.RefundTier{{DaysBeforeStart: 7, RefundPercent: decimal.NewFromInt(100)}}}
	s.mock.ExpectQuery(`FROM tenant_settings`).
		WithArgs(tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"tenant_id", "default_deposit_type", "default_deposit_value", "default_refund_policy",
			"pricing_match_mode", "tax_rate", "turnover_buffer_minutes", "updated_at"}).
			AddRow(tenantID, models.DepositTypePercentage, decimal.NewFromInt(20), policy, models.PricingMatchCumulative,
				decimal.RequireFromString("0.0825"), 60, time.Now()))

	settings, err := s.repo.GetSettings(s.ctx, tenancy.MustScope(tenantID, "acme"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.DepositTypePercentage, settings.DefaultDepositType)
	assert.Equal(s.T(), time.Hour, settings.TurnoverBuffer())
	assert.Equal(s.T(), models.RefundTypeTiered, settings.DefaultRefundPolicy.Type)
}

func stringPtr(s string) *string {
	return &s
}
