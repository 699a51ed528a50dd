package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/repositories"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type mockImportEnqueuer struct {
	mock.Mock
}

func (m *mockImportEnqueuer) EnqueueImport(ctx context.Context, scope tenancy.Scope, jobID uuid.UUID) error {
	args := m.Called(ctx, scope, jobID)
	return args.Error(0)
}

type ImportServiceTestSuite struct {
	suite.Suite
	mockCustomers    *MockCustomerRepository
	mockPets         *MockPetRepository
	mockResources    *MockResourceRepository
	mockServices     *MockServiceRepository
	mockReservations *MockReservationRepository
	mockTenants      *MockTenantRepository
	mockCache        *MockCacheService
	mockMinio        *MockMinioService
	boarding         *models.Service
	scope            tenancy.Scope
	ctx              context.Context
}

func (suite *ImportServiceTestSuite) SetupTest() {
	suite.mockCustomers = new(MockCustomerRepository)
	suite.mockPets = new(MockPetRepository)
	suite.mockResources = new(MockResourceRepository)
	suite.mockServices = new(MockServiceRepository)
	suite.mockReservations = new(MockReservationRepository)
	suite.mockTenants = new(MockTenantRepository)
	suite.mockCache = new(MockCacheService)
	suite.mockMinio = new(MockMinioService)
	suite.scope = tenancy.MustScope(uuid.New(), "acme")
	suite.ctx = context.Background()
	suite.boarding = &models.Service{
		ID:        uuid.New(),
		Name:      "Boarding",
		BasePrice: decimal.NewFromInt(50),
		PriceUnit: models.PriceUnitPerNight,
		IsActive:  true,
	}
}

func (suite *ImportServiceTestSuite) TearDownTest() {
	suite.mockCustomers.AssertExpectations(suite.T())
	suite.mockPets.AssertExpectations(suite.T())
	suite.mockServices.AssertExpectations(suite.T())
	suite.mockReservations.AssertExpectations(suite.T())
	suite.mockTenants.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
	suite.mockMinio.AssertExpectations(suite.T())
}

func TestImportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ImportServiceTestSuite))
}

func (suite *ImportServiceTestSuite) newService(enqueuer ImportEnqueuer) ImportService {
	return NewImportService(suite.mockCustomers, suite.mockPets, suite.mockResources, suite.mockServices,
		suite.mockReservations, suite.mockTenants, suite.mockCache, suite.mockMinio, enqueuer, zap.NewNop())
}

const importHeader = "external_id,customer_external_id,customer_first_name,customer_last_name,pet_external_id,pet_name,service_name,start_date,end_date\n"

func (suite *ImportServiceTestSuite) expectNewStay(externalID string) {
	suite.mockReservations.On("GetByExternalID", suite.ctx, suite.scope, externalID).Return(nil, common.ErrReservationNotFound).Once()
	suite.mockServices.On("GetByName", suite.ctx, suite.scope, "Boarding").Return(suite.boarding, nil).Once()
	suite.mockCustomers.On("GetByExternalID", suite.ctx, suite.scope, "C1").Return(nil, common.ErrCustomerNotFound).Once()
	suite.mockCustomers.On("Create", suite.ctx, suite.scope, mock.MatchedBy(func(c *models.Customer) bool {
		return c.FirstName == "Ada" && *c.ExternalID == "C1"
	})).Return(nil).Once()
	suite.mockPets.On("GetByExternalID", suite.ctx, suite.scope, "P1").Return(nil, common.ErrPetNotFound).Once()
	suite.mockPets.On("Create", suite.ctx, suite.scope, mock.MatchedBy(func(p *models.Pet) bool {
		return p.Name == "Rex" && p.Species == models.SpeciesDog
	})).Return(nil).Once()
	suite.mockReservations.On("Create", suite.ctx, suite.scope, mock.MatchedBy(func(r *models.Reservation) bool {
		return *r.ExternalID == externalID && r.Price.Equal(decimal.NewFromInt(100)) && r.Status == models.ReservationConfirmed
	}), (*repositories.BookingCheck)(nil)).Return(nil).Once()
}

func (suite *ImportServiceTestSuite) TestImportCSV_MixedRows() {
	data := importHeader +
		"R1,C1,Ada,Lovelace,P1,Rex,Boarding,2025-06-10,2025-06-12\n" +
		"R2,C1,Ada,Lovelace,P1,Rex,Boarding,2025-07-10,2025-07-12\n" +
		"R3,C1,Ada,Lovelace,P1,Rex,Spa Day,2025-08-10,2025-08-12\n" +
		"R4,C1,Ada,Lovelace,P1,Rex,Boarding,someday,2025-08-12\n"

	suite.expectNewStay("R1")
	suite.mockReservations.On("GetByExternalID", suite.ctx, suite.scope, "R2").Return(&models.Reservation{ID: uuid.New()}, nil)
	suite.mockReservations.On("GetByExternalID", suite.ctx, suite.scope, "R3").Return(nil, common.ErrReservationNotFound)
	suite.mockServices.On("GetByName", suite.ctx, suite.scope, "Spa Day").Return(nil, common.ErrServiceNotFound)

	job := &models.ImportJob{ID: uuid.New(), TenantID: suite.scope.TenantID()}
	err := suite.newService(nil).ImportCSV(suite.ctx, suite.scope, job, strings.NewReader(data))

	suite.Require().NoError(err)
	suite.Equal(4, job.RecordsProcessed)
	suite.Equal(1, job.ReservationsImported)
	suite.Equal(1, job.ReservationsSkipped)
	suite.Equal(1, job.CustomersCreated)
	suite.Equal(1, job.PetsCreated)
	suite.Require().Len(job.Errors, 2)
	suite.Contains(job.Errors[0], "line 5")
	suite.Contains(job.Errors[1], "line 4")
}

func (suite *ImportServiceTestSuite) TestImportCSV_PetOwnedByAnotherCustomer() {
	data := importHeader + "R1,C1,Ada,Lovelace,P1,Rex,Boarding,2025-06-10,2025-06-12\n"
	customer := &models.Customer{ID: uuid.New()}

	suite.mockReservations.On("GetByExternalID", suite.ctx, suite.scope, "R1").Return(nil, common.ErrReservationNotFound)
	suite.mockServices.On("GetByName", suite.ctx, suite.scope, "Boarding").Return(suite.boarding, nil)
	suite.mockCustomers.On("GetByExternalID", suite.ctx, suite.scope, "C1").Return(customer, nil)
	suite.mockPets.On("GetByExternalID", suite.ctx, suite.scope, "P1").Return(&models.Pet{ID: uuid.New(), CustomerID: uuid.New()}, nil)

	job := &models.ImportJob{ID: uuid.New()}
	err := suite.newService(nil).ImportCSV(suite.ctx, suite.scope, job, strings.NewReader(data))

	suite.Require().NoError(err)
	suite.Equal(0, job.ReservationsImported)
	suite.Require().Len(job.Errors, 1)
	suite.Contains(job.Errors[0], "different customer")
}

func (suite *ImportServiceTestSuite) TestImportCSV_ActiveStaysAreCapacityChecked() {
	data := "external_id,customer_external_id,pet_external_id,pet_name,resource_name,service_name,start_date,end_date,status\n" +
		"R1,C1,P1,Rex,Suite A,Boarding,2025-12-12,2025-12-14,CONFIRMED\n" +
		"R2,C1,P1,Rex,Suite A,Boarding,2025-12-12,2025-12-14,COMPLETED\n"
	customer := &models.Customer{ID: uuid.New(), IsActive: true}
	suiteA := &models.Resource{ID: uuid.New(), Name: "Suite A", Capacity: 1, IsActive: true}
	existing := &models.Reservation{
		ID:        uuid.New(),
		StartDate: time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
		Status:    models.ReservationConfirmed,
	}
	settings := models.DefaultTenantSettings(suite.scope.TenantID())
	settings.TurnoverBufferMinutes = 30

	for _, id := range []string{"R1", "R2"} {
		suite.mockReservations.On("GetByExternalID", suite.ctx, suite.scope, id).Return(nil, common.ErrReservationNotFound).Once()
	}
	suite.mockServices.On("GetByName", suite.ctx, suite.scope, "Boarding").Return(suite.boarding, nil)
	suite.mockResources.On("GetByName", suite.ctx, suite.scope, "Suite A").Return(suiteA, nil)
	suite.mockCustomers.On("GetByExternalID", suite.ctx, suite.scope, "C1").Return(customer, nil)
	suite.mockPets.On("GetByExternalID", suite.ctx, suite.scope, "P1").Return(&models.Pet{ID: uuid.New(), CustomerID: customer.ID}, nil)
	suite.mockTenants.On("GetSettings", suite.ctx, suite.scope).Return(settings, nil).Once()

	var guardErr error
	suite.mockReservations.On("Create", suite.ctx, suite.scope, mock.MatchedBy(func(r *models.Reservation) bool {
		return *r.ExternalID == "R1"
	}), mock.MatchedBy(func(check *repositories.BookingCheck) bool {
		if check == nil || check.Guard == nil || check.Buffer != 30*time.Minute {
			return false
		}
		guardErr = check.Guard(suiteA, []*models.Reservation{existing})
		return true
	})).Return(&common.ConflictError{Message: "Suite A is not available", ConflictingIDs: []uuid.UUID{existing.ID}}).Once()
	suite.mockReservations.On("Create", suite.ctx, suite.scope, mock.MatchedBy(func(r *models.Reservation) bool {
		return *r.ExternalID == "R2"
	}), (*repositories.BookingCheck)(nil)).Return(nil).Once()

	job := &models.ImportJob{ID: uuid.New()}
	err := suite.newService(nil).ImportCSV(suite.ctx, suite.scope, job, strings.NewReader(data))

	suite.Require().NoError(err)
	var conflict *common.ConflictError
	suite.Require().ErrorAs(guardErr, &conflict)
	suite.Equal([]uuid.UUID{existing.ID}, conflict.ConflictingIDs)
	suite.Equal(2, job.RecordsProcessed)
	suite.Equal(1, job.ReservationsImported)
	suite.Equal(0, job.ReservationsSkipped)
	suite.Require().Len(job.Errors, 1)
	suite.Contains(job.Errors[0], "line 2")
}

func (suite *ImportServiceTestSuite) TestImportCSV_StorageFailureAborts() {
	data := importHeader + "R1,C1,Ada,Lovelace,P1,Rex,Boarding,2025-06-10,2025-06-12\n"
	suite.mockReservations.On("GetByExternalID", suite.ctx, suite.scope, "R1").Return(nil, errBoom)

	job := &models.ImportJob{ID: uuid.New()}
	err := suite.newService(nil).ImportCSV(suite.ctx, suite.scope, job, strings.NewReader(data))

	suite.ErrorIs(err, errBoom)
	suite.Contains(err.Error(), "line 2")
}

func (suite *ImportServiceTestSuite) TestSubmit_Enqueues() {
	enqueuer := new(mockImportEnqueuer)
	data := importHeader

	suite.mockMinio.On("Upload", suite.ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "imports/"+suite.scope.TenantID().String()+"/")
	}), mock.Anything, int64(len(data)), "text/csv").Return(nil)
	suite.mockCache.On("SetImportJob", suite.ctx, mock.MatchedBy(func(j *models.ImportJob) bool {
		return j.Status == models.ImportQueued
	}), 7*24*time.Hour).Return(nil)
	enqueuer.On("EnqueueImport", suite.ctx, suite.scope, mock.Anything).Return(nil)

	job, err := suite.newService(enqueuer).Submit(suite.ctx, suite.scope, strings.NewReader(data), int64(len(data)))

	suite.Require().NoError(err)
	suite.Equal(models.ImportQueued, job.Status)
	enqueuer.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestSubmit_RunsInlineWithoutQueue() {
	data := importHeader + "R1,C1,Ada,Lovelace,P1,Rex,Boarding,2025-06-10,2025-06-12\n"
	stored := &models.ImportJob{}

	suite.mockMinio.On("Upload", suite.ctx, mock.Anything, mock.Anything, int64(len(data)), "text/csv").Return(nil)
	suite.mockCache.On("SetImportJob", suite.ctx, mock.Anything, 7*24*time.Hour).Run(func(args mock.Arguments) {
		job := args.Get(1).(*models.ImportJob)
		if job.Status == models.ImportQueued {
			*stored = *job
		}
	}).Return(nil)
	suite.mockCache.On("GetImportJob", suite.ctx, suite.scope.TenantID(), mock.Anything).Return(stored, nil)
	suite.mockMinio.On("Download", suite.ctx, mock.Anything).Return(io.NopCloser(strings.NewReader(data)), nil)
	suite.expectNewStay("R1")

	job, err := suite.newService(nil).Submit(suite.ctx, suite.scope, strings.NewReader(data), int64(len(data)))

	suite.Require().NoError(err)
	suite.Equal(models.ImportCompleted, job.Status)
	suite.Equal(1, job.ReservationsImported)
	suite.NotNil(job.FinishedAt)
}

func (suite *ImportServiceTestSuite) TestSubmit_RejectsOversizedFile() {
	_, err := suite.newService(nil).Submit(suite.ctx, suite.scope, strings.NewReader(""), 21<<20)

	suite.True(common.IsValidation(err))
}

func (suite *ImportServiceTestSuite) TestRun_MissingFileMarksFailed() {
	jobID := uuid.New()
	job := &models.ImportJob{ID: jobID, TenantID: suite.scope.TenantID(), Status: models.ImportQueued, ObjectKey: "imports/x.csv"}

	suite.mockCache.On("GetImportJob", suite.ctx, suite.scope.TenantID(), jobID).Return(job, nil)
	suite.mockCache.On("SetImportJob", suite.ctx, job, 7*24*time.Hour).Return(nil)
	suite.mockMinio.On("Download", suite.ctx, "imports/x.csv").Return(nil, errBoom)

	got, err := suite.newService(nil).Run(suite.ctx, suite.scope, jobID)

	suite.ErrorIs(err, errBoom)
	suite.Require().NotNil(got)
	suite.Equal(models.ImportFailed, got.Status)
	suite.NotEmpty(got.Errors)
}

func (suite *ImportServiceTestSuite) TestGet_Unknown() {
	jobID := uuid.New()
	suite.mockCache.On("GetImportJob", suite.ctx, suite.scope.TenantID(), jobID).Return(nil, nil)

	_, err := suite.newService(nil).Get(suite.ctx, suite.scope, jobID)

	suite.ErrorIs(err, common.ErrImportNotFound)
}

func TestParseImportCSV(t *testing.T) {
	data := "\ufeffPet_Name,service_name,external_id,customer_external_id,pet_external_id,start_date,end_date,pet_species,status,price\n" +
		"Rex,Boarding,R1,C1,P1,2025-06-10T14:00:00Z,2025-06-12 10:00:00,,,\n" +
		"Tom,Boarding,R2,C2,P2,2025-06-10,2025-06-12,cat,pending,120.50\n" +
		"Bob,Boarding,R3,C3,P3,2025-06-10,2025-06-12,hamster,,\n" +
		"Max,Boarding,R4,C4,P4,2025-06-12,2025-06-10,,,\n" +
		"Zed,Boarding,R5,,P5,2025-06-10,2025-06-12,,,\n" +
		"Kit,Boarding,R6,C6,P6,2025-06-10,2025-06-12,,archived,\n"

	records, rowErrs, err := ParseImportCSV(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Len(t, rowErrs, 3)

	assert.Equal(t, "Rex", records[0].PetName)
	assert.Equal(t, 2, records[0].Line)
	assert.Equal(t, models.SpeciesDog, records[0].PetSpecies)
	assert.Equal(t, models.ReservationConfirmed, records[0].Status)
	assert.Equal(t, time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC), records[0].StartDate)
	assert.Equal(t, "Imported", records[0].CustomerFirstName)
	assert.Nil(t, records[0].Price)

	assert.Equal(t, models.SpeciesCat, records[1].PetSpecies)
	assert.Equal(t, models.ReservationPending, records[1].Status)
	require.NotNil(t, records[1].Price)
	assert.True(t, records[1].Price.Equal(decimal.RequireFromString("120.5")))

	assert.Equal(t, models.SpeciesOther, records[2].PetSpecies)

	assert.Contains(t, rowErrs[0].Error(), "line 5")
	assert.Contains(t, rowErrs[1].Error(), "customer_external_id is required")
	assert.Contains(t, rowErrs[2].Error(), "unknown status")
}

func TestParseImportCSV_MissingColumn(t *testing.T) {
	_, _, err := ParseImportCSV(strings.NewReader("external_id,pet_name\nR1,Rex\n"))

	assert.True(t, common.IsValidation(err))
}

func TestParseImportCSV_Empty(t *testing.T) {
	_, _, err := ParseImportCSV(strings.NewReader(""))

	assert.True(t, common.IsValidation(err))
}
