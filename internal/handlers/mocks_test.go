package handlers

import (
	"context"
	"io"
	"time"

	"tailtown/internal/availability"
	"tailtown/internal/models"
	"tailtown/internal/services"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Create(ctx context.Context, scope tenancy.Scope, customer *models.Customer) error {
	args := m.Called(ctx, scope, customer)
	return args.Error(0)
}

func (m *MockCustomerService) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerService) Update(ctx context.Context, scope tenancy.Scope, customer *models.Customer) error {
	args := m.Called(ctx, scope, customer)
	return args.Error(0)
}

func (m *MockCustomerService) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockCustomerService) List(ctx context.Context, scope tenancy.Scope, filter models.CustomerFilter) ([]*models.Customer, int, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Customer), args.Int(1), args.Error(2)
}

type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) reservation(args mock.Arguments) (*models.Reservation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationService) Create(ctx context.Context, scope tenancy.Scope, req *services.CreateReservationRequest) (*models.Reservation, error) {
	return m.reservation(m.Called(ctx, scope, req))
}

func (m *MockReservationService) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error) {
	return m.reservation(m.Called(ctx, scope, id))
}

func (m *MockReservationService) List(ctx context.Context, scope tenancy.Scope, filter models.ReservationFilter) ([]*models.Reservation, int, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Reservation), args.Int(1), args.Error(2)
}

func (m *MockReservationService) Update(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req *services.UpdateReservationRequest) (*models.Reservation, error) {
	return m.reservation(m.Called(ctx, scope, id, req))
}

func (m *MockReservationService) Confirm(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error) {
	return m.reservation(m.Called(ctx, scope, id))
}

func (m *MockReservationService) CheckIn(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error) {
	return m.reservation(m.Called(ctx, scope, id))
}

func (m *MockReservationService) CheckOut(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*services.CheckOutResult, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CheckOutResult), args.Error(1)
}

func (m *MockReservationService) Complete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error) {
	return m.reservation(m.Called(ctx, scope, id))
}

func (m *MockReservationService) Cancel(ctx context.Context, scope tenancy.Scope, id uuid.UUID, reason *string) (*services.CancelResult, error) {
	args := m.Called(ctx, scope, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CancelResult), args.Error(1)
}

func (m *MockReservationService) ExpirePending(ctx context.Context, scope tenancy.Scope, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, scope, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationService) CompleteCheckedOut(ctx context.Context, scope tenancy.Scope) (int64, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(int64), args.Error(1)
}

type MockAvailabilityService struct {
	mock.Mock
}

func (m *MockAvailabilityService) IsAvailable(ctx context.Context, scope tenancy.Scope, resourceID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	args := m.Called(ctx, scope, resourceID, start, end, exclude)
	return args.Bool(0), args.Error(1)
}

func (m *MockAvailabilityService) FindConflicts(ctx context.Context, scope tenancy.Scope, resourceID uuid.UUID, start, end time.Time, exclude *uuid.UUID) ([]*models.Reservation, error) {
	args := m.Called(ctx, scope, resourceID, start, end, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *MockAvailabilityService) Check(ctx context.Context, scope tenancy.Scope, req *services.AvailabilityRequest) (*services.AvailabilityResult, error) {
	args := m.Called(ctx, scope, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AvailabilityResult), args.Error(1)
}

func (m *MockAvailabilityService) Alternatives(ctx context.Context, scope tenancy.Scope, req *services.AvailabilityRequest) ([]availability.Suggestion, error) {
	args := m.Called(ctx, scope, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]availability.Suggestion), args.Error(1)
}

type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) Submit(ctx context.Context, scope tenancy.Scope, reader io.Reader, size int64) (*models.ImportJob, error) {
	args := m.Called(ctx, scope, reader, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportJob), args.Error(1)
}

func (m *MockImportService) Get(ctx context.Context, scope tenancy.Scope, jobID uuid.UUID) (*models.ImportJob, error) {
	args := m.Called(ctx, scope, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportJob), args.Error(1)
}

func (m *MockImportService) Run(ctx context.Context, scope tenancy.Scope, jobID uuid.UUID) (*models.ImportJob, error) {
	args := m.Called(ctx, scope, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportJob), args.Error(1)
}

func (m *MockImportService) ImportCSV(ctx context.Context, scope tenancy.Scope, job *models.ImportJob, r io.Reader) error {
	args := m.Called(ctx, scope, job, r)
	return args.Error(0)
}
