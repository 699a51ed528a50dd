//go:build integration

package repositories_test

import (
	"context"
	"testing"
	"time"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/repositories"
	"tailtown/pkg/database"
	"tailtown/testhelpers"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type TenantIsolationSuite struct {
	suite.Suite
	db   *testhelpers.TestDB
	ctx  context.Context
	repo repositories.CustomerRepository
}

func (s *TenantIsolationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.db = testhelpers.SetupTestDB(s.T())
	s.repo = repositories.NewCustomerRepo(s.db.Pool)
}

func (s *TenantIsolationSuite) TearDownSuite() {
	s.NoError(s.db.Cleanup())
}

func (s *TenantIsolationSuite) TestCustomersAreInvisibleAcrossTenants() {
	acme := testhelpers.SetupTestTenant(s.T(), s.db, "acme-"+uuid.NewString()[:8])
	other := testhelpers.SetupTestTenant(s.T(), s.db, "other-"+uuid.NewString()[:8])

	customer := &models.Customer{ID: uuid.New(), FirstName: "Ann", LastName: "Lee", IsActive: true}
	s.Require().NoError(s.repo.Create(s.ctx, acme, customer))
	s.Equal(acme.TenantID(), customer.TenantID)

	got, err := s.repo.GetByID(s.ctx, acme, customer.ID)
	s.Require().NoError(err)
	s.Equal("Lee", got.LastName)

	_, err = s.repo.GetByID(s.ctx, other, customer.ID)
	s.ErrorIs(err, common.ErrCustomerNotFound)

	list, total, err := s.repo.List(s.ctx, other, models.CustomerFilter{Limit: common.DefaultPageLimit})
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(list)
}

func (s *TenantIsolationSuite) TestReservationRoundTrip() {
	scope := testhelpers.SetupTestTenant(s.T(), s.db, "stay-"+uuid.NewString()[:8])

	service := &models.Service{ID: uuid.New(), Name: "Boarding", Category: models.ServiceCategoryBoarding,
		BasePrice: decimal.NewFromInt(50), PriceUnit: models.PriceUnitPerNight, IsActive: true}
	s.Require().NoError(repositories.NewServiceRepo(s.db.Pool).Create(s.ctx, scope, service))
	resource := &models.Resource{ID: uuid.New(), Name: "Suite 1", Type: models.ResourceStandardSuite, Capacity: 1, IsActive: true}
	s.Require().NoError(repositories.NewResourceRepo(s.db.Pool).Create(s.ctx, scope, resource))
	customer := &models.Customer{ID: uuid.New(), FirstName: "Ann", LastName: "Lee", IsActive: true}
	s.Require().NoError(s.repo.Create(s.ctx, scope, customer))
	pet := &models.Pet{ID: uuid.New(), CustomerID: customer.ID, Name: "Rex", Species: models.SpeciesDog, IsActive: true}
	s.Require().NoError(repositories.NewPetRepo(s.db.Pool).Create(s.ctx, scope, pet))

	reservations := repositories.NewReservationRepo(s.db.Pool)
	res := &models.Reservation{
		ID:            uuid.New(),
		CustomerID:    customer.ID,
		PetIDs:        []uuid.UUID{pet.ID},
		ResourceID:    &resource.ID,
		ServiceID:     service.ID,
		StartDate:     time.Date(2025, 7, 1, 15, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, 7, 4, 11, 0, 0, 0, time.UTC),
		Status:        models.ReservationConfirmed,
		Price:         decimal.NewFromInt(150),
		DepositAmount: decimal.Zero,
	}
	var locked *models.Resource
	check := &repositories.BookingCheck{Buffer: 30 * time.Minute, Guard: func(r *models.Resource, overlapping []*models.Reservation) error {
		locked = r
		s.Empty(overlapping)
		return nil
	}}
	s.Require().NoError(reservations.Create(s.ctx, scope, res, check))
	s.Require().NotNil(locked)
	s.Equal(resource.ID, locked.ID)

	got, err := reservations.GetByID(s.ctx, scope, res.ID)
	s.Require().NoError(err)
	s.True(res.StartDate.Equal(got.StartDate), "start %s", got.StartDate)
	s.True(res.EndDate.Equal(got.EndDate), "end %s", got.EndDate)
	s.Equal(models.ReservationConfirmed, got.Status)
	s.Require().NotNil(got.ResourceID)
	s.Equal(resource.ID, *got.ResourceID)
	s.Equal(customer.ID, got.CustomerID)
	s.Equal(service.ID, got.ServiceID)
	s.Equal([]uuid.UUID{pet.ID}, got.PetIDs)
	s.True(got.Price.Equal(decimal.NewFromInt(150)))

	_, err = reservations.GetByID(s.ctx, testhelpers.SetupTestTenant(s.T(), s.db, "peer-"+uuid.NewString()[:8]), res.ID)
	s.ErrorIs(err, common.ErrReservationNotFound)
}

func (s *TenantIsolationSuite) TestMigrateIsRepeatable() {
	s.NoError(database.Migrate(s.ctx, s.db.Pool, zap.NewNop()))
}

func TestTenantIsolationSuite(t *testing.T) {
	suite.Run(t, new(TenantIsolationSuite))
}
