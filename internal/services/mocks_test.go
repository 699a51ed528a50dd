package services

import (
	"context"
	"errors"
	"io"
	"time"

	"tailtown/internal/models"
	"tailtown/internal/pricing"
	"tailtown/internal/repositories"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var errBoom = errors.New("boom")

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, scope tenancy.Scope, customer *models.Customer) error {
	args := m.Called(ctx, scope, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByExternalID(ctx context.Context, scope tenancy.Scope, externalID string) (*models.Customer, error) {
	args := m.Called(ctx, scope, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, scope tenancy.Scope, customer *models.Customer) error {
	args := m.Called(ctx, scope, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockCustomerRepository) List(ctx context.Context, scope tenancy.Scope, filter models.CustomerFilter) ([]*models.Customer, int, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Customer), args.Int(1), args.Error(2)
}

type MockPetRepository struct {
	mock.Mock
}

func (m *MockPetRepository) Create(ctx context.Context, scope tenancy.Scope, pet *models.Pet) error {
	args := m.Called(ctx, scope, pet)
	return args.Error(0)
}

func (m *MockPetRepository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Pet, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pet), args.Error(1)
}

func (m *MockPetRepository) GetByExternalID(ctx context.Context, scope tenancy.Scope, externalID string) (*models.Pet, error) {
	args := m.Called(ctx, scope, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pet), args.Error(1)
}

func (m *MockPetRepository) Update(ctx context.Context, scope tenancy.Scope, pet *models.Pet) error {
	args := m.Called(ctx, scope, pet)
	return args.Error(0)
}

func (m *MockPetRepository) SetPhoto(ctx context.Context, scope tenancy.Scope, id uuid.UUID, objectKey string) error {
	args := m.Called(ctx, scope, id, objectKey)
	return args.Error(0)
}

func (m *MockPetRepository) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockPetRepository) List(ctx context.Context, scope tenancy.Scope, customerID *uuid.UUID, limit, offset int) ([]*models.Pet, int, error) {
	args := m.Called(ctx, scope, customerID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Pet), args.Int(1), args.Error(2)
}

func (m *MockPetRepository) CountOwnedBy(ctx context.Context, scope tenancy.Scope, customerID uuid.UUID, petIDs []uuid.UUID) (int, error) {
	args := m.Called(ctx, scope, customerID, petIDs)
	return args.Int(0), args.Error(1)
}

type MockResourceRepository struct {
	mock.Mock
}

func (m *MockResourceRepository) Create(ctx context.Context, scope tenancy.Scope, resource *models.Resource) error {
	args := m.Called(ctx, scope, resource)
	return args.Error(0)
}

func (m *MockResourceRepository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Resource, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Resource), args.Error(1)
}

func (m *MockResourceRepository) GetByName(ctx context.Context, scope tenancy.Scope, name string) (*models.Resource, error) {
	args := m.Called(ctx, scope, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Resource), args.Error(1)
}

func (m *MockResourceRepository) Update(ctx context.Context, scope tenancy.Scope, resource *models.Resource) error {
	args := m.Called(ctx, scope, resource)
	return args.Error(0)
}

func (m *MockResourceRepository) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockResourceRepository) List(ctx context.Context, scope tenancy.Scope, resourceType string, includeInactive bool, limit, offset int) ([]*models.Resource, int, error) {
	args := m.Called(ctx, scope, resourceType, includeInactive, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Resource), args.Int(1), args.Error(2)
}

func (m *MockResourceRepository) ListActiveByType(ctx context.Context, scope tenancy.Scope, resourceType string) ([]*models.Resource, error) {
	args := m.Called(ctx, scope, resourceType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Resource), args.Error(1)
}

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) Create(ctx context.Context, scope tenancy.Scope, service *models.Service) error {
	args := m.Called(ctx, scope, service)
	return args.Error(0)
}

func (m *MockServiceRepository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Service, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *MockServiceRepository) GetByName(ctx context.Context, scope tenancy.Scope, name string) (*models.Service, error) {
	args := m.Called(ctx, scope, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *MockServiceRepository) Update(ctx context.Context, scope tenancy.Scope, service *models.Service) error {
	args := m.Called(ctx, scope, service)
	return args.Error(0)
}

func (m *MockServiceRepository) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockServiceRepository) List(ctx context.Context, scope tenancy.Scope, category string, limit, offset int) ([]*models.Service, int, error) {
	args := m.Called(ctx, scope, category, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Service), args.Int(1), args.Error(2)
}

type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Create(ctx context.Context, scope tenancy.Scope, reservation *models.Reservation, check *repositories.BookingCheck) error {
	args := m.Called(ctx, scope, reservation, check)
	return args.Error(0)
}

func (m *MockReservationRepository) Update(ctx context.Context, scope tenancy.Scope, reservation *models.Reservation, check *repositories.BookingCheck) error {
	args := m.Called(ctx, scope, reservation, check)
	return args.Error(0)
}

func (m *MockReservationRepository) UpdateStatus(ctx context.Context, scope tenancy.Scope, id uuid.UUID, from, to string, at time.Time, reason *string) error {
	args := m.Called(ctx, scope, id, from, to, at, reason)
	return args.Error(0)
}

func (m *MockReservationRepository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetByExternalID(ctx context.Context, scope tenancy.Scope, externalID string) (*models.Reservation, error) {
	args := m.Called(ctx, scope, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationRepository) List(ctx context.Context, scope tenancy.Scope, filter models.ReservationFilter) ([]*models.Reservation, int, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Reservation), args.Int(1), args.Error(2)
}

func (m *MockReservationRepository) ListOverlapping(ctx context.Context, scope tenancy.Scope, resourceIDs []uuid.UUID, start, end time.Time, buffer time.Duration, exclude uuid.UUID) ([]*models.Reservation, error) {
	args := m.Called(ctx, scope, resourceIDs, start, end, buffer, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *MockReservationRepository) CountForCustomer(ctx context.Context, scope tenancy.Scope, customerID uuid.UUID, before time.Time) (int, error) {
	args := m.Called(ctx, scope, customerID, before)
	return args.Int(0), args.Error(1)
}

func (m *MockReservationRepository) ExpirePending(ctx context.Context, scope tenancy.Scope, createdBefore time.Time) (int64, error) {
	args := m.Called(ctx, scope, createdBefore)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationRepository) CompleteCheckedOut(ctx context.Context, scope tenancy.Scope, endedBefore time.Time) (int64, error) {
	args := m.Called(ctx, scope, endedBefore)
	return args.Get(0).(int64), args.Error(1)
}

type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) CreateDepositRule(ctx context.Context, scope tenancy.Scope, rule *models.DepositRule) error {
	args := m.Called(ctx, scope, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) GetDepositRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.DepositRule, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DepositRule), args.Error(1)
}

func (m *MockRuleRepository) UpdateDepositRule(ctx context.Context, scope tenancy.Scope, rule *models.DepositRule) error {
	args := m.Called(ctx, scope, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) DeleteDepositRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockRuleRepository) ListDepositRules(ctx context.Context, scope tenancy.Scope, activeOnly bool) ([]*models.DepositRule, error) {
	args := m.Called(ctx, scope, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DepositRule), args.Error(1)
}

func (m *MockRuleRepository) CreatePricingRule(ctx context.Context, scope tenancy.Scope, rule *models.PricingRule) error {
	args := m.Called(ctx, scope, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) GetPricingRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.PricingRule, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PricingRule), args.Error(1)
}

func (m *MockRuleRepository) UpdatePricingRule(ctx context.Context, scope tenancy.Scope, rule *models.PricingRule) error {
	args := m.Called(ctx, scope, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) DeletePricingRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockRuleRepository) ListPricingRules(ctx context.Context, scope tenancy.Scope, activeOnly bool) ([]*models.PricingRule, error) {
	args := m.Called(ctx, scope, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PricingRule), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, scope tenancy.Scope, invoice *models.Invoice) error {
	args := m.Called(ctx, scope, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetByReservation(ctx context.Context, scope tenancy.Scope, reservationID uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, scope, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) UpdateDraft(ctx context.Context, scope tenancy.Scope, invoice *models.Invoice) error {
	args := m.Called(ctx, scope, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Finalize(ctx context.Context, scope tenancy.Scope, id uuid.UUID, issuedAt, dueDate time.Time) error {
	args := m.Called(ctx, scope, id, issuedAt, dueDate)
	return args.Error(0)
}

func (m *MockInvoiceRepository) MarkPaid(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Void(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SetPDFKey(ctx context.Context, scope tenancy.Scope, id uuid.UUID, objectKey string) error {
	args := m.Called(ctx, scope, id, objectKey)
	return args.Error(0)
}

func (m *MockInvoiceRepository) List(ctx context.Context, scope tenancy.Scope, status string, customerID *uuid.UUID, limit, offset int) ([]*models.Invoice, int, error) {
	args := m.Called(ctx, scope, status, customerID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Invoice), args.Int(1), args.Error(2)
}

func (m *MockInvoiceRepository) RecordPayment(ctx context.Context, scope tenancy.Scope, payment *models.Payment, apply func(invoice *models.Invoice) error) (*models.Invoice, error) {
	args := m.Called(ctx, scope, payment, apply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListPayments(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID) ([]*models.Payment, error) {
	args := m.Called(ctx, scope, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, scope tenancy.Scope, user *models.User) error {
	args := m.Called(ctx, scope, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, scope tenancy.Scope, email string) (*models.User, error) {
	args := m.Called(ctx, scope, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, scope tenancy.Scope, user *models.User) error {
	args := m.Called(ctx, scope, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, scope tenancy.Scope, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, scope, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) TouchLogin(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockUserRepository) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, scope tenancy.Scope, limit, offset int) ([]*models.User, int, error) {
	args := m.Called(ctx, scope, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.User), args.Int(1), args.Error(2)
}

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	args := m.Called(ctx, subdomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTenantRepository) List(ctx context.Context, limit, offset int) ([]*models.Tenant, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Tenant), args.Int(1), args.Error(2)
}

func (m *MockTenantRepository) ListServing(ctx context.Context) ([]*models.Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetSettings(ctx context.Context, scope tenancy.Scope) (*models.TenantSettings, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantSettings), args.Error(1)
}

func (m *MockTenantRepository) UpsertSettings(ctx context.Context, scope tenancy.Scope, settings *models.TenantSettings) error {
	args := m.Called(ctx, scope, settings)
	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, scope tenancy.Scope, product *models.Product) error {
	args := m.Called(ctx, scope, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySKU(ctx context.Context, scope tenancy.Scope, sku string) (*models.Product, error) {
	args := m.Called(ctx, scope, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, scope tenancy.Scope, product *models.Product) error {
	args := m.Called(ctx, scope, product)
	return args.Error(0)
}

func (m *MockProductRepository) AdjustStock(ctx context.Context, scope tenancy.Scope, id uuid.UUID, delta int) (int, error) {
	args := m.Called(ctx, scope, id, delta)
	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockProductRepository) List(ctx context.Context, scope tenancy.Scope, search string, limit, offset int) ([]*models.Product, int, error) {
	args := m.Called(ctx, scope, search, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Product), args.Int(1), args.Error(2)
}

type MockAnnouncementRepository struct {
	mock.Mock
}

func (m *MockAnnouncementRepository) Create(ctx context.Context, scope tenancy.Scope, announcement *models.Announcement) error {
	args := m.Called(ctx, scope, announcement)
	return args.Error(0)
}

func (m *MockAnnouncementRepository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Announcement, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Announcement), args.Error(1)
}

func (m *MockAnnouncementRepository) Update(ctx context.Context, scope tenancy.Scope, announcement *models.Announcement) error {
	args := m.Called(ctx, scope, announcement)
	return args.Error(0)
}

func (m *MockAnnouncementRepository) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockAnnouncementRepository) List(ctx context.Context, scope tenancy.Scope, limit, offset int) ([]*models.Announcement, int, error) {
	args := m.Called(ctx, scope, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Announcement), args.Int(1), args.Error(2)
}

func (m *MockAnnouncementRepository) ListActive(ctx context.Context, scope tenancy.Scope, at time.Time) ([]*models.Announcement, error) {
	args := m.Called(ctx, scope, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Announcement), args.Error(1)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) KennelDistribution(ctx context.Context, scope tenancy.Scope, start, end time.Time) ([]models.ResourceReservationCount, error) {
	args := m.Called(ctx, scope, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ResourceReservationCount), args.Error(1)
}

func (m *MockReportRepository) ImportSummary(ctx context.Context, scope tenancy.Scope) (*models.ImportSummary, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportSummary), args.Error(1)
}

func (m *MockReportRepository) Occupancy(ctx context.Context, scope tenancy.Scope, dayStart, dayEnd time.Time) ([]models.ResourceOccupancy, error) {
	args := m.Called(ctx, scope, dayStart, dayEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ResourceOccupancy), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	args := m.Called(ctx, subdomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockCacheService) GetTenantByID(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockCacheService) SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error {
	args := m.Called(ctx, tenant, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteTenant(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockCacheService) GetImportJob(ctx context.Context, tenantID, jobID uuid.UUID) (*models.ImportJob, error) {
	args := m.Called(ctx, tenantID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportJob), args.Error(1)
}

func (m *MockCacheService) SetImportJob(ctx context.Context, job *models.ImportJob, ttl time.Duration) error {
	args := m.Called(ctx, job, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) ResetRateLimit(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockMinioService struct {
	mock.Mock
}

func (m *MockMinioService) Upload(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	args := m.Called(ctx, objectName, reader, objectSize, contentType)
	return args.Error(0)
}

func (m *MockMinioService) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	args := m.Called(ctx, objectName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockMinioService) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockMinioService) Delete(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

func (m *MockMinioService) EnsureBucketExists(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockPricingService struct {
	mock.Mock
}

func (m *MockPricingService) CreateDepositRule(ctx context.Context, scope tenancy.Scope, rule *models.DepositRule) error {
	args := m.Called(ctx, scope, rule)
	return args.Error(0)
}

func (m *MockPricingService) GetDepositRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.DepositRule, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DepositRule), args.Error(1)
}

func (m *MockPricingService) UpdateDepositRule(ctx context.Context, scope tenancy.Scope, rule *models.DepositRule) error {
	args := m.Called(ctx, scope, rule)
	return args.Error(0)
}

func (m *MockPricingService) DeleteDepositRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockPricingService) ListDepositRules(ctx context.Context, scope tenancy.Scope) ([]*models.DepositRule, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DepositRule), args.Error(1)
}

func (m *MockPricingService) CreatePricingRule(ctx context.Context, scope tenancy.Scope, rule *models.PricingRule) error {
	args := m.Called(ctx, scope, rule)
	return args.Error(0)
}

func (m *MockPricingService) GetPricingRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.PricingRule, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PricingRule), args.Error(1)
}

func (m *MockPricingService) UpdatePricingRule(ctx context.Context, scope tenancy.Scope, rule *models.PricingRule) error {
	args := m.Called(ctx, scope, rule)
	return args.Error(0)
}

func (m *MockPricingService) DeletePricingRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockPricingService) ListPricingRules(ctx context.Context, scope tenancy.Scope) ([]*models.PricingRule, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PricingRule), args.Error(1)
}

func (m *MockPricingService) ValidateRules(ctx context.Context, scope tenancy.Scope) ([]pricing.RuleConfigError, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pricing.RuleConfigError), args.Error(1)
}

func (m *MockPricingService) Quote(ctx context.Context, scope tenancy.Scope, req *QuoteRequest) (*Quote, error) {
	args := m.Called(ctx, scope, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Quote), args.Error(1)
}

func (m *MockPricingService) EvaluateDeposit(ctx context.Context, scope tenancy.Scope, d pricing.Draft) (*pricing.DepositQuote, error) {
	args := m.Called(ctx, scope, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.DepositQuote), args.Error(1)
}

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) CreateFromReservation(ctx context.Context, scope tenancy.Scope, reservationID uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, scope, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context, scope tenancy.Scope, status string, customerID *uuid.UUID, limit, offset int) ([]*models.Invoice, int, error) {
	args := m.Called(ctx, scope, status, customerID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Invoice), args.Int(1), args.Error(2)
}

func (m *MockInvoiceService) UpdateDraft(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req *UpdateInvoiceRequest) (*models.Invoice, error) {
	args := m.Called(ctx, scope, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Finalize(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Void(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockInvoiceService) RecordPayment(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID, req *PaymentRequest, createdBy *uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, scope, invoiceID, req, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Refund(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID, req *RefundRequest, createdBy *uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, scope, invoiceID, req, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) ListPayments(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID) ([]*models.Payment, error) {
	args := m.Called(ctx, scope, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockInvoiceService) SettleCancellation(ctx context.Context, scope tenancy.Scope, reservation *models.Reservation, policy models.RefundPolicy) (*models.Invoice, decimal.Decimal, error) {
	args := m.Called(ctx, scope, reservation, policy)
	if args.Get(0) == nil {
		return nil, decimal.Zero, args.Error(2)
	}
	return args.Get(0).(*models.Invoice), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockInvoiceService) PDFURL(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (string, error) {
	args := m.Called(ctx, scope, id)
	return args.String(0), args.Error(1)
}
