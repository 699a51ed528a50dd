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
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var reservationCols = []string{"id", "tenant_id", "customer_id", "resource_id", "service_id", "start_date", "end_date", "status",
	"price", "deposit_amount", "deposit_rule_id", "notes", "external_id", "cancellation_reason", "cancelled_at",
	"checked_in_at", "checked_out_at", "created_at", "updated_at"}

var resourceCols = []string{"id", "tenant_id", "name", "type", "capacity", "description", "is_active", "created_at", "updated_at"}

type ReservationRepoTestSuite struct {
	suite.Suite
	mock       pgxmock.PgxPoolIface
	repo       ReservationRepository
	scope      tenancy.Scope
	tenantID   uuid.UUID
	resourceID uuid.UUID
	ctx        context.Context
}

func (s *ReservationRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(s.T(), err)
	s.mock = mock
	s.repo = NewReservationRepo(mock)
	s.tenantID = uuid.New()
	s.resourceID = uuid.New()
	s.scope = tenancy.MustScope(s.tenantID, "acme")
	s.ctx = context.Background()
}

func (s *ReservationRepoTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
	s.mock.Close()
}

func TestReservationRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ReservationRepoTestSuite))
}

func day(d int) time.Time {
	return time.Date(2025, time.December, d, 0, 0, 0, 0, time.UTC)
}

func (s *ReservationRepoTestSuite) newReservation(start, end time.Time) *models.Reservation {
	resourceID := s.resourceID
	return &models.Reservation{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		PetIDs:        []uuid.UUID{uuid.New()},
		ResourceID:    &resourceID,
		ServiceID:     uuid.New(),
		StartDate:     start,
		EndDate:       end,
		Status:        models.ReservationConfirmed,
		Price:         decimal.NewFromInt(250),
		DepositAmount: decimal.Zero,
	}
}

func (s *ReservationRepoTestSuite) reservationRow(r *models.Reservation) []any {
	now := time.Now()
	return []any{r.ID, s.tenantID, r.CustomerID, r.ResourceID, r.ServiceID, r.StartDate, r.EndDate, r.Status,
		r.Price, r.DepositAmount, nil, nil, nil, nil, nil, nil, nil, now, now}
}

func (s *ReservationRepoTestSuite) expectResourceLock(capacity int) {
	s.mock.ExpectQuery(`FROM resources WHERE tenant_id = \$1 AND id = \$2 FOR UPDATE`).
		WithArgs(s.tenantID, s.resourceID).
		WillReturnRows(pgxmock.NewRows(resourceCols).
			AddRow(s.resourceID, s.tenantID, "Suite 1", models.ResourceStandardSuite, capacity, nil, true, time.Now(), time.Now()))
}

func (s *ReservationRepoTestSuite) expectOverlapQuery(r *models.Reservation, buffer time.Duration, existing ...*models.Reservation) {
	rows := pgxmock.NewRows(reservationCols)
	for _, e := range existing {
		rows.AddRow(s.reservationRow(e)...)
	}
	s.mock.ExpectQuery(`FROM reservations\s+WHERE tenant_id = \$1\s+AND resource_id = ANY\(\$2\)`).
		WithArgs(s.tenantID, []uuid.UUID{s.resourceID}, models.ActiveReservationStatuses, r.ID, r.EndDate.Add(buffer), r.StartDate.Add(-buffer)).
		WillReturnRows(rows)
}

func (s *ReservationRepoTestSuite) expectInsert(r *models.Reservation) {
	now := time.Now()
	s.mock.ExpectQuery(`INSERT INTO reservations`).
		WithArgs(r.ID, s.tenantID, r.CustomerID, r.ResourceID, r.ServiceID, r.StartDate, r.EndDate, r.Status,
			pgxmock.AnyArg(), pgxmock.AnyArg(), r.DepositRuleID, r.Notes, r.ExternalID).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	for _, petID := range r.PetIDs {
		s.mock.ExpectExec(`INSERT INTO reservation_pets`).
			WithArgs(r.ID, petID, s.tenantID).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
}

func (s *ReservationRepoTestSuite) TestCreate_LocksResourceAndInserts() {
	res := s.newReservation(day(10), day(15))
	var seen []*models.Reservation

	s.mock.ExpectBegin()
	s.expectResourceLock(1)
	s.expectOverlapQuery(res, 0)
	s.expectInsert(res)
	s.mock.ExpectCommit()

	err := s.repo.Create(s.ctx, s.scope, res, &BookingCheck{
		Guard: func(resource *models.Resource, overlapping []*models.Reservation) error {
			assert.Equal(s.T(), s.resourceID, resource.ID)
			seen = overlapping
			return nil
		},
	})

	require.NoError(s.T(), err)
	assert.Empty(s.T(), seen)
	assert.Equal(s.T(), s.tenantID, res.TenantID)
	assert.False(s.T(), res.CreatedAt.IsZero())
}

func (s *ReservationRepoTestSuite) TestCreate_GuardRejectionRollsBack() {
	existing := s.newReservation(day(10), day(15))
	res := s.newReservation(day(12), day(14))

	s.mock.ExpectBegin()
	s.expectResourceLock(1)
	s.expectOverlapQuery(res, 0, existing)
	s.mock.ExpectRollback()

	err := s.repo.Create(s.ctx, s.scope, res, &BookingCheck{
		Guard: func(_ *models.Resource, overlapping []*models.Reservation) error {
			require.Len(s.T(), overlapping, 1)
			return &common.ConflictError{Message: "resource is already booked", ConflictingIDs: []uuid.UUID{overlapping[0].ID}}
		},
	})

	var conflict *common.ConflictError
	require.True(s.T(), errors.As(err, &conflict))
	assert.Equal(s.T(), []uuid.UUID{existing.ID}, conflict.ConflictingIDs)
}

func (s *ReservationRepoTestSuite) TestCreate_BufferWidensOverlapWindow() {
	res := s.newReservation(day(15), day(18))
	buffer := 2 * time.Hour

	s.mock.ExpectBegin()
	s.expectResourceLock(1)
	s.expectOverlapQuery(res, buffer)
	s.expectInsert(res)
	s.mock.ExpectCommit()

	err := s.repo.Create(s.ctx, s.scope, res, &BookingCheck{Buffer: buffer})
	assert.NoError(s.T(), err)
}

func (s *ReservationRepoTestSuite) TestCreate_UnknownResource() {
	res := s.newReservation(day(10), day(15))

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(s.tenantID, s.resourceID).
		WillReturnRows(pgxmock.NewRows(resourceCols))
	s.mock.ExpectRollback()

	err := s.repo.Create(s.ctx, s.scope, res, &BookingCheck{})
	assert.ErrorIs(s.T(), err, common.ErrResourceNotFound)
}

func (s *ReservationRepoTestSuite) TestCreate_WithoutResourceSkipsLock() {
	res := s.newReservation(day(10), day(11))
	res.ResourceID = nil

	s.mock.ExpectBegin()
	s.expectInsert(res)
	s.mock.ExpectCommit()

	err := s.repo.Create(s.ctx, s.scope, res, &BookingCheck{
		Guard: func(*models.Resource, []*models.Reservation) error {
			s.T().Fatal("guard must not run without a resource")
			return nil
		},
	})
	assert.NoError(s.T(), err)
}

func (s *ReservationRepoTestSuite) TestCreate_RequiresScope() {
	err := s.repo.Create(s.ctx, tenancy.Scope{}, s.newReservation(day(1), day(2)), nil)
	assert.ErrorIs(s.T(), err, common.ErrMissingTenantScope)
}

func (s *ReservationRepoTestSuite) TestGetByID_AttachesPets() {
	res := s.newReservation(day(10), day(15))
	petA, petB := uuid.New(), uuid.New()

	s.mock.ExpectQuery(`FROM reservations WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(s.tenantID, res.ID).
		WillReturnRows(pgxmock.NewRows(reservationCols).AddRow(s.reservationRow(res)...))
	s.mock.ExpectQuery(`FROM reservation_pets`).
		WithArgs(s.tenantID, []uuid.UUID{res.ID}).
		WillReturnRows(pgxmock.NewRows([]string{"reservation_id", "pet_id"}).AddRow(res.ID, petA).AddRow(res.ID, petB))

	got, err := s.repo.GetByID(s.ctx, s.scope, res.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), res.ID, got.ID)
	assert.Equal(s.T(), res.StartDate, got.StartDate)
	assert.Equal(s.T(), res.EndDate, got.EndDate)
	assert.Equal(s.T(), res.Status, got.Status)
	assert.Equal(s.T(), *res.ResourceID, *got.ResourceID)
	assert.Equal(s.T(), res.CustomerID, got.CustomerID)
	assert.Equal(s.T(), []uuid.UUID{petA, petB}, got.PetIDs)
}

func (s *ReservationRepoTestSuite) TestGetByID_NotFound() {
	id := uuid.New()
	s.mock.ExpectQuery(`FROM reservations WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(s.tenantID, id).
		WillReturnRows(pgxmock.NewRows(reservationCols))

	_, err := s.repo.GetByID(s.ctx, s.scope, id)
	assert.ErrorIs(s.T(), err, common.ErrReservationNotFound)
}

func (s *ReservationRepoTestSuite) TestUpdateStatus_StaleStatusIsConflict() {
	id := uuid.New()
	at := time.Now()
	s.mock.ExpectExec(`UPDATE reservations\s+SET status = \$1`).
		WithArgs(models.ReservationCheckedIn, at, (*string)(nil), s.tenantID, id, models.ReservationConfirmed).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.repo.UpdateStatus(s.ctx, s.scope, id, models.ReservationConfirmed, models.ReservationCheckedIn, at, nil)
	assert.True(s.T(), common.IsConflict(err))
}

func (s *ReservationRepoTestSuite) TestList_BuildsFilters() {
	status := models.ReservationConfirmed
	start, end := day(1), day(31)
	res := s.newReservation(day(10), day(15))

	s.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations WHERE tenant_id = \$1 AND start_date < \$2 AND end_date > \$3 AND status = \$4`).
		WithArgs(s.tenantID, end, start, status).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	s.mock.ExpectQuery(`ORDER BY start_date, id LIMIT \$5 OFFSET \$6`).
		WithArgs(s.tenantID, end, start, status, 50, 0).
		WillReturnRows(pgxmock.NewRows(reservationCols).AddRow(s.reservationRow(res)...))
	s.mock.ExpectQuery(`FROM reservation_pets`).
		WithArgs(s.tenantID, []uuid.UUID{res.ID}).
		WillReturnRows(pgxmock.NewRows([]string{"reservation_id", "pet_id"}))

	items, total, err := s.repo.List(s.ctx, s.scope, models.ReservationFilter{
		StartDate: &start, EndDate: &end, Status: &status, Limit: 50,
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, total)
	require.Len(s.T(), items, 1)
	assert.Empty(s.T(), items[0].PetIDs)
}

func (s *ReservationRepoTestSuite) TestExpirePending() {
	cutoff := time.Now().Add(-48 * time.Hour)
	s.mock.ExpectExec(`SET status = 'CANCELLED'`).
		WithArgs(s.tenantID, cutoff).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := s.repo.ExpirePending(s.ctx, s.scope, cutoff)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(3), n)
}
