package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tailtown/internal/availability"
	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/services"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type HandlersTestSuite struct {
	suite.Suite
	e            *echo.Echo
	scope        tenancy.Scope
	customers    *MockCustomerService
	reservations *MockReservationService
	availability *MockAvailabilityService
	imports      *MockImportService
}

func (s *HandlersTestSuite) SetupTest() {
	s.scope = tenancy.MustScope(uuid.New(), "acme")
	s.customers = new(MockCustomerService)
	s.reservations = new(MockReservationService)
	s.availability = new(MockAvailabilityService)
	s.imports = new(MockImportService)

	s.e = echo.New()
	s.e.Validator = common.NewRequestValidator()
	s.e.HTTPErrorHandler = common.NewHTTPErrorHandler(zap.NewNop(), nil)

	ch := NewCustomerHandlers(s.customers)
	s.e.GET("/api/customers", ch.ListCustomers)
	s.e.POST("/api/customers", ch.CreateCustomer)
	s.e.GET("/api/customers/:id", ch.GetCustomer)
	s.e.PUT("/api/customers/:id", ch.UpdateCustomer)

	rh := NewReservationHandlers(s.reservations)
	s.e.GET("/api/reservations", rh.ListReservations)
	s.e.POST("/api/reservations", rh.CreateReservation)
	s.e.POST("/api/reservations/:id/cancel", rh.CancelReservation)

	ah := NewAvailabilityHandlers(s.availability)
	s.e.GET("/api/availability", ah.CheckAvailability)

	ih := NewImportHandlers(s.imports)
	s.e.GET("/api/imports/template", ih.Template)
	s.e.POST("/api/imports/reservations", ih.UploadImport)
}

func (s *HandlersTestSuite) TearDownTest() {
	s.customers.AssertExpectations(s.T())
	s.reservations.AssertExpectations(s.T())
	s.availability.AssertExpectations(s.T())
	s.imports.AssertExpectations(s.T())
}

func (s *HandlersTestSuite) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	req = req.WithContext(tenancy.WithScope(req.Context(), s.scope))
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *HandlersTestSuite) doJSON(method, path string, body interface{}) *httptest.ResponseRecorder {
	b, err := json.Marshal(body)
	s.Require().NoError(err)
	return s.do(method, path, bytes.NewReader(b), echo.MIMEApplicationJSON)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) common.ErrorResponse {
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *HandlersTestSuite) TestListCustomers_ClampsLimitAndWrapsPage() {
	id := uuid.New()
	s.customers.On("List", mock.Anything, s.scope, models.CustomerFilter{
		Search:          "smith",
		IncludeInactive: true,
		Limit:           common.MaxPageLimit,
		Offset:          10,
	}).Return([]*models.Customer{{ID: id, FirstName: "Ann"}}, 11, nil)

	rec := s.do(http.MethodGet, "/api/customers?search=%25smith&include_inactive=true&limit=5000&offset=10", nil, "")

	s.Equal(http.StatusOK, rec.Code)
	var resp struct {
		Data       []models.Customer `json:"data"`
		Pagination common.Pagination `json:"pagination"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Len(resp.Data, 1)
	s.Equal(id, resp.Data[0].ID)
	s.Equal(common.Pagination{Limit: common.MaxPageLimit, Offset: 10, TotalCount: 11}, resp.Pagination)
}

func (s *HandlersTestSuite) TestGetCustomer_NotFound() {
	id := uuid.New()
	s.customers.On("GetByID", mock.Anything, s.scope, id).Return(nil, common.ErrCustomerNotFound)

	rec := s.do(http.MethodGet, "/api/customers/"+id.String(), nil, "")

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("NOT_FOUND", decodeError(s.T(), rec).Error.Code)
}

func (s *HandlersTestSuite) TestGetCustomer_BadID() {
	rec := s.do(http.MethodGet, "/api/customers/not-a-uuid", nil, "")

	s.Equal(http.StatusBadRequest, rec.Code)
	resp := decodeError(s.T(), rec)
	s.Equal("VALIDATION_ERROR", resp.Error.Code)
	s.Contains(resp.Error.Details, "id")
}

func (s *HandlersTestSuite) TestCreateCustomer_MalformedBody() {
	rec := s.do(http.MethodPost, "/api/customers", strings.NewReader(`{"first_name":`), echo.MIMEApplicationJSON)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", decodeError(s.T(), rec).Error.Code)
}

func (s *HandlersTestSuite) TestUpdateCustomer_KeepsIdentity() {
	id := uuid.New()
	existing := &models.Customer{ID: id, TenantID: s.scope.TenantID(), FirstName: "Ann", LastName: "Lee"}
	s.customers.On("GetByID", mock.Anything, s.scope, id).Return(existing, nil)
	s.customers.On("Update", mock.Anything, s.scope, mock.MatchedBy(func(c *models.Customer) bool {
		return c.ID == id && c.TenantID == s.scope.TenantID() && c.FirstName == "Anna" && c.LastName == "Lee"
	})).Return(nil)

	rec := s.doJSON(http.MethodPut, "/api/customers/"+id.String(), map[string]interface{}{
		"id":         uuid.NewString(),
		"tenant_id":  uuid.NewString(),
		"first_name": "Anna",
	})

	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlersTestSuite) TestListReservations_ParsesFilters() {
	resourceID := uuid.New()
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	s.reservations.On("List", mock.Anything, s.scope, mock.MatchedBy(func(f models.ReservationFilter) bool {
		return f.StartDate != nil && f.StartDate.Equal(start) &&
			f.EndDate != nil && f.EndDate.Equal(end) &&
			f.Status != nil && *f.Status == models.ReservationConfirmed &&
			f.ResourceID != nil && *f.ResourceID == resourceID &&
			f.CustomerID == nil &&
			f.Limit == common.DefaultPageLimit && f.Offset == 0
	})).Return([]*models.Reservation{}, 0, nil)

	rec := s.do(http.MethodGet, "/api/reservations?start_date=2025-07-01&end_date=2025-07-08T00:00:00Z&status=confirmed&resource_id="+resourceID.String(), nil, "")

	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlersTestSuite) TestListReservations_RejectsInvertedRange() {
	rec := s.do(http.MethodGet, "/api/reservations?start_date=2025-07-08&end_date=2025-07-01", nil, "")

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(decodeError(s.T(), rec).Error.Details, "end_date")
}

func (s *HandlersTestSuite) TestCreateReservation_ConflictListsReservations() {
	clash := uuid.New()
	s.reservations.On("Create", mock.Anything, s.scope, mock.AnythingOfType("*services.CreateReservationRequest")).
		Return(nil, &common.ConflictError{Message: "resource is already booked for these dates", ConflictingIDs: []uuid.UUID{clash}})

	resourceID := uuid.New()
	rec := s.doJSON(http.MethodPost, "/api/reservations", services.CreateReservationRequest{
		CustomerID: uuid.New(),
		PetIDs:     []uuid.UUID{uuid.New()},
		ResourceID: &resourceID,
		ServiceID:  uuid.New(),
		StartDate:  time.Date(2025, 7, 1, 15, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 7, 4, 11, 0, 0, 0, time.UTC),
	})

	s.Equal(http.StatusConflict, rec.Code)
	resp := decodeError(s.T(), rec)
	s.Equal("CONFLICT", resp.Error.Code)
	s.Equal([]interface{}{clash.String()}, resp.Error.Details["conflicting_ids"])
}

func (s *HandlersTestSuite) TestCreateReservation_ValidatesBody() {
	rec := s.doJSON(http.MethodPost, "/api/reservations", map[string]interface{}{
		"customer_id": uuid.NewString(),
		"service_id":  uuid.NewString(),
		"start_date":  "2025-07-01T15:00:00Z",
		"end_date":    "2025-07-04T11:00:00Z",
	})

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(decodeError(s.T(), rec).Error.Details, "pet_ids")
}

func (s *HandlersTestSuite) TestCancelReservation_OptionalReason() {
	id := uuid.New()
	result := &services.CancelResult{Reservation: &models.Reservation{ID: id, Status: models.ReservationCancelled}}
	s.reservations.On("Cancel", mock.Anything, s.scope, id, (*string)(nil)).Return(result, nil).Once()
	s.reservations.On("Cancel", mock.Anything, s.scope, id, mock.MatchedBy(func(r *string) bool {
		return r != nil && *r == "owner sick"
	})).Return(result, nil).Once()

	rec := s.do(http.MethodPost, "/api/reservations/"+id.String()+"/cancel", nil, "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.doJSON(http.MethodPost, "/api/reservations/"+id.String()+"/cancel", map[string]string{"reason": "owner sick"})
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlersTestSuite) TestCheckAvailability() {
	resourceID := uuid.New()
	alt := uuid.New()
	s.availability.On("Check", mock.Anything, s.scope, mock.MatchedBy(func(r *services.AvailabilityRequest) bool {
		return r.ResourceID == resourceID &&
			r.StartDate.Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)) &&
			r.EndDate.Equal(time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)) &&
			r.ExcludeReservationID == nil
	})).Return(&services.AvailabilityResult{
		ResourceID:   resourceID,
		Available:    false,
		Capacity:     1,
		PeakLoad:     1,
		Alternatives: []availability.Suggestion{{OffsetDays: 0, AvailableCount: 1, ResourceIDs: []uuid.UUID{alt}}},
	}, nil)

	rec := s.do(http.MethodGet, "/api/availability?resource_id="+resourceID.String()+"&start_date=2025-07-01&end_date=2025-07-03", nil, "")

	s.Equal(http.StatusOK, rec.Code)
	var result services.AvailabilityResult
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &result))
	s.False(result.Available)
	s.Require().Len(result.Alternatives, 1)
	s.Equal([]uuid.UUID{alt}, result.Alternatives[0].ResourceIDs)
}

func (s *HandlersTestSuite) TestCheckAvailability_RequiresResource() {
	rec := s.do(http.MethodGet, "/api/availability?start_date=2025-07-01&end_date=2025-07-03", nil, "")

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(decodeError(s.T(), rec).Error.Details, "resource_id")
}

func (s *HandlersTestSuite) TestUploadImport() {
	csvBody := strings.Join(services.ImportColumns, ",") + "\n"
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "export.csv")
	s.Require().NoError(err)
	_, err = part.Write([]byte(csvBody))
	s.Require().NoError(err)
	s.Require().NoError(w.Close())

	job := &models.ImportJob{ID: uuid.New(), TenantID: s.scope.TenantID(), Status: models.ImportQueued}
	s.imports.On("Submit", mock.Anything, s.scope, mock.Anything, int64(len(csvBody))).Return(job, nil)

	rec := s.do(http.MethodPost, "/api/imports/reservations", &buf, w.FormDataContentType())

	s.Equal(http.StatusAccepted, rec.Code)
	var got models.ImportJob
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal(job.ID, got.ID)
}

func (s *HandlersTestSuite) TestUploadImport_MissingFile() {
	rec := s.do(http.MethodPost, "/api/imports/reservations", strings.NewReader(""), echo.MIMEMultipartForm)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(decodeError(s.T(), rec).Error.Details, "file")
}

func (s *HandlersTestSuite) TestImportTemplate() {
	rec := s.do(http.MethodGet, "/api/imports/template", nil, "")

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("text/csv", rec.Header().Get(echo.HeaderContentType))
	s.Equal(strings.Join(services.ImportColumns, ",")+"\n", rec.Body.String())
}

func (s *HandlersTestSuite) TestMissingScope() {
	req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	rec := httptest.NewRecorder()

	s.e.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(string(common.TenantRequired), decodeError(s.T(), rec).Error.Code)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func TestHealthHandlers_Readiness(t *testing.T) {
	e := echo.New()
	h := NewHealthHandlers("test")
	h.Register("database", PingFunc(func(context.Context) error { return nil }), true)
	h.Register("storage", PingFunc(func(context.Context) error { return assert.AnError }), false)
	e.GET("/health", h.HealthCheck)
	e.GET("/health/ready", h.ReadinessCheck)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, map[string]string{"database": "healthy", "storage": "unhealthy"}, status.Services)

	h.Register("redis", PingFunc(func(context.Context) error { return assert.AnError }), true)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")
}
