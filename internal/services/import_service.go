package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"tailtown/internal/caching"
	"tailtown/internal/common"
	"tailtown/internal/metrics"
	"tailtown/internal/models"
	"tailtown/internal/pricing"
	"tailtown/internal/repositories"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	importStatusTTL = 7 * 24 * time.Hour
	maxImportSize   = 20 << 20
	maxImportErrors = 100
)

// ImportEnqueuer hands an uploaded import to a background worker.
type ImportEnqueuer interface {
	EnqueueImport(ctx context.Context, scope tenancy.Scope, jobID uuid.UUID) error
}

// ImportService loads reservations exported from another system. Rows are keyed by
// external id so running the same file twice creates nothing new.
type ImportService interface {
	Submit(ctx context.Context, scope tenancy.Scope, reader io.Reader, size int64) (*models.ImportJob, error)
	Get(ctx context.Context, scope tenancy.Scope, jobID uuid.UUID) (*models.ImportJob, error)
	Run(ctx context.Context, scope tenancy.Scope, jobID uuid.UUID) (*models.ImportJob, error)
	ImportCSV(ctx context.Context, scope tenancy.Scope, job *models.ImportJob, r io.Reader) error
}

// ImportRecord is one parsed CSV row.
type ImportRecord struct {
	Line               int
	ExternalID         string
	CustomerExternalID string
	CustomerFirstName  string
	CustomerLastName   string
	CustomerEmail      string
	PetExternalID      string
	PetName            string
	PetSpecies         string
	ResourceName       string
	ServiceName        string
	StartDate          time.Time
	EndDate            time.Time
	Status             string
	Price              *decimal.Decimal
}

type importService struct {
	customerRepo    repositories.CustomerRepository
	petRepo         repositories.PetRepository
	resourceRepo    repositories.ResourceRepository
	serviceRepo     repositories.ServiceRepository
	reservationRepo repositories.ReservationRepository
	tenantRepo      repositories.TenantRepository
	cacheSvc        caching.CacheService
	minioService    MinioService
	enqueuer        ImportEnqueuer
	now             func() time.Time
	log             *zap.Logger
}

// NewImportService builds the importer. A nil enqueuer runs imports inline on Submit.
func NewImportService(
	customerRepo repositories.CustomerRepository,
	petRepo repositories.PetRepository,
	resourceRepo repositories.ResourceRepository,
	serviceRepo repositories.ServiceRepository,
	reservationRepo repositories.ReservationRepository,
	tenantRepo repositories.TenantRepository,
	cacheSvc caching.CacheService,
	minioService MinioService,
	enqueuer ImportEnqueuer,
	log *zap.Logger,
) ImportService {
	return &importService{
		customerRepo:    customerRepo,
		petRepo:         petRepo,
		resourceRepo:    resourceRepo,
		serviceRepo:     serviceRepo,
		reservationRepo: reservationRepo,
		tenantRepo:      tenantRepo,
		cacheSvc:        cacheSvc,
		minioService:    minioService,
		enqueuer:        enqueuer,
		now:             time.Now,
		log:             log,
	}
}

func importObjectKey(tenantID, jobID uuid.UUID) string {
	return fmt.Sprintf("imports/%s/%s.csv", tenantID, jobID)
}

func (s *importService) Submit(ctx context.Context, scope tenancy.Scope, reader io.Reader, size int64) (*models.ImportJob, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	if size <= 0 || size > maxImportSize {
		return nil, common.NewValidationError("file", "must be between 1 byte and 20MB")
	}

	job := &models.ImportJob{
		ID:       uuid.New(),
		TenantID: tenantID,
		Status:   models.ImportQueued,
		QueuedAt: s.now().UTC(),
	}
	job.ObjectKey = importObjectKey(tenantID, job.ID)
	if err := s.minioService.Upload(ctx, job.ObjectKey, reader, size, "text/csv"); err != nil {
		return nil, fmt.Errorf("failed to store import file: %w", err)
	}
	if err := s.cacheSvc.SetImportJob(ctx, job, importStatusTTL); err != nil {
		return nil, fmt.Errorf("failed to record import job: %w", err)
	}

	if s.enqueuer == nil {
		return s.Run(ctx, scope, job.ID)
	}
	if err := s.enqueuer.EnqueueImport(ctx, scope, job.ID); err != nil {
		return nil, fmt.Errorf("failed to enqueue import: %w", err)
	}
	return job, nil
}

func (s *importService) Get(ctx context.Context, scope tenancy.Scope, jobID uuid.UUID) (*models.ImportJob, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	job, err := s.cacheSvc.GetImportJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, common.ErrImportNotFound
	}
	return job, nil
}

// Run processes a queued import. The job record is updated whether the import succeeds or fails.
func (s *importService) Run(ctx context.Context, scope tenancy.Scope, jobID uuid.UUID) (*models.ImportJob, error) {
	job, err := s.Get(ctx, scope, jobID)
	if err != nil {
		return nil, err
	}
	job.Status = models.ImportRunning
	s.save(ctx, job)

	body, err := s.minioService.Download(ctx, job.ObjectKey)
	if err == nil {
		err = s.ImportCSV(ctx, scope, job, body)
		body.Close()
	}

	finished := s.now().UTC()
	job.FinishedAt = &finished
	if err != nil {
		job.Status = models.ImportFailed
		job.Errors = append(job.Errors, err.Error())
	} else {
		job.Status = models.ImportCompleted
	}
	s.save(ctx, job)

	s.log.Info("reservation import finished",
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("job_id", job.ID.String()),
		zap.String("status", job.Status),
		zap.Int("processed", job.RecordsProcessed),
		zap.Int("imported", job.ReservationsImported),
		zap.Int("skipped", job.ReservationsSkipped),
	)
	return job, err
}

func (s *importService) save(ctx context.Context, job *models.ImportJob) {
	if err := s.cacheSvc.SetImportJob(ctx, job, importStatusTTL); err != nil {
		s.log.Warn("failed to update import job", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}

// ImportCSV reads every row of r into the tenant. Row level problems are recorded on the
// job and do not stop the import; only unreadable input does.
func (s *importService) ImportCSV(ctx context.Context, scope tenancy.Scope, job *models.ImportJob, r io.Reader) error {
	records, rowErrs, err := ParseImportCSV(r)
	if err != nil {
		return err
	}
	for _, e := range rowErrs {
		job.RecordsProcessed++
		s.recordError(job, e.Error())
	}
	run := &importRun{job: job}
	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		job.RecordsProcessed++
		if err := s.importRecord(ctx, scope, run, &records[i]); err != nil {
			var ve *common.ValidationError
			if !errors.As(err, &ve) && !common.IsNotFound(err) && !common.IsConflict(err) {
				return fmt.Errorf("line %d: %w", records[i].Line, err)
			}
			s.recordError(job, fmt.Sprintf("line %d: %s", records[i].Line, err.Error()))
		}
	}
	return nil
}

func (s *importService) recordError(job *models.ImportJob, msg string) {
	metrics.ImportRecords.WithLabelValues("error").Inc()
	if len(job.Errors) < maxImportErrors {
		job.Errors = append(job.Errors, msg)
	}
}

// importRun holds per-import state shared by its rows.
type importRun struct {
	job      *models.ImportJob
	settings *models.TenantSettings
}

// bookingCheck guards rows that hold capacity. Rows that no longer occupy a resource
// (checked out, completed, cancelled) are history and load without a check.
func (s *importService) bookingCheck(ctx context.Context, scope tenancy.Scope, run *importRun, rec *ImportRecord, resourceID *uuid.UUID) (*repositories.BookingCheck, error) {
	if resourceID == nil || !models.IsActiveReservationStatus(rec.Status) {
		return nil, nil
	}
	if run.settings == nil {
		settings, err := s.tenantRepo.GetSettings(ctx, scope)
		if err != nil {
			return nil, err
		}
		run.settings = settings
	}
	buffer := run.settings.TurnoverBuffer()
	return &repositories.BookingCheck{Buffer: buffer, Guard: capacityGuard(rec.StartDate, rec.EndDate, buffer)}, nil
}

func (s *importService) importRecord(ctx context.Context, scope tenancy.Scope, run *importRun, rec *ImportRecord) error {
	job := run.job
	if _, err := s.reservationRepo.GetByExternalID(ctx, scope, rec.ExternalID); err == nil {
		job.ReservationsSkipped++
		metrics.ImportRecords.WithLabelValues("skipped").Inc()
		return nil
	} else if !common.IsNotFound(err) {
		return err
	}

	service, err := s.serviceRepo.GetByName(ctx, scope, rec.ServiceName)
	if err != nil {
		if common.IsNotFound(err) {
			return common.NewValidationError("service_name", fmt.Sprintf("unknown service %q", rec.ServiceName))
		}
		return err
	}
	var resourceID *uuid.UUID
	if rec.ResourceName != "" {
		resource, err := s.resourceRepo.GetByName(ctx, scope, rec.ResourceName)
		if err != nil {
			if common.IsNotFound(err) {
				return common.NewValidationError("resource_name", fmt.Sprintf("unknown resource %q", rec.ResourceName))
			}
			return err
		}
		resourceID = &resource.ID
	}

	customer, err := s.ensureCustomer(ctx, scope, job, rec)
	if err != nil {
		return err
	}
	pet, err := s.ensurePet(ctx, scope, job, rec, customer.ID)
	if err != nil {
		return err
	}

	price := service.BasePrice.Mul(pricing.BillableUnits(service.PriceUnit, pricing.Draft{StartDate: rec.StartDate, EndDate: rec.EndDate})).Round(2)
	if rec.Price != nil {
		price = rec.Price.Round(2)
	}
	externalID := rec.ExternalID
	res := &models.Reservation{
		ID:            uuid.New(),
		CustomerID:    customer.ID,
		PetIDs:        []uuid.UUID{pet.ID},
		ResourceID:    resourceID,
		ServiceID:     service.ID,
		StartDate:     rec.StartDate,
		EndDate:       rec.EndDate,
		Status:        rec.Status,
		Price:         price,
		DepositAmount: decimal.Zero,
		ExternalID:    &externalID,
	}
	check, err := s.bookingCheck(ctx, scope, run, rec, resourceID)
	if err != nil {
		return err
	}
	if err := s.reservationRepo.Create(ctx, scope, res, check); err != nil {
		// Over capacity is a row error; a bare conflict is a concurrent insert of the same external id.
		var ce *common.ConflictError
		if errors.As(err, &ce) && len(ce.ConflictingIDs) == 0 {
			job.ReservationsSkipped++
			metrics.ImportRecords.WithLabelValues("skipped").Inc()
			return nil
		}
		return err
	}
	job.ReservationsImported++
	metrics.ImportRecords.WithLabelValues("imported").Inc()
	return nil
}

func (s *importService) ensureCustomer(ctx context.Context, scope tenancy.Scope, job *models.ImportJob, rec *ImportRecord) (*models.Customer, error) {
	existing, err := s.customerRepo.GetByExternalID(ctx, scope, rec.CustomerExternalID)
	if err == nil {
		return existing, nil
	}
	if !common.IsNotFound(err) {
		return nil, err
	}

	externalID := rec.CustomerExternalID
	c := &models.Customer{
		ID:         uuid.New(),
		FirstName:  rec.CustomerFirstName,
		LastName:   rec.CustomerLastName,
		ExternalID: &externalID,
		IsActive:   true,
	}
	if rec.CustomerEmail != "" {
		email := strings.ToLower(rec.CustomerEmail)
		c.Email = &email
	}
	if err := s.customerRepo.Create(ctx, scope, c); err != nil {
		if common.IsConflict(err) {
			return s.customerRepo.GetByExternalID(ctx, scope, rec.CustomerExternalID)
		}
		return nil, err
	}
	job.CustomersCreated++
	return c, nil
}

func (s *importService) ensurePet(ctx context.Context, scope tenancy.Scope, job *models.ImportJob, rec *ImportRecord, customerID uuid.UUID) (*models.Pet, error) {
	existing, err := s.petRepo.GetByExternalID(ctx, scope, rec.PetExternalID)
	if err == nil {
		if existing.CustomerID != customerID {
			return nil, common.NewValidationError("pet_external_id", "pet belongs to a different customer")
		}
		return existing, nil
	}
	if !common.IsNotFound(err) {
		return nil, err
	}

	externalID := rec.PetExternalID
	p := &models.Pet{
		ID:         uuid.New(),
		CustomerID: customerID,
		Name:       rec.PetName,
		Species:    rec.PetSpecies,
		ExternalID: &externalID,
		IsActive:   true,
	}
	if err := s.petRepo.Create(ctx, scope, p); err != nil {
		if common.IsConflict(err) {
			return s.petRepo.GetByExternalID(ctx, scope, rec.PetExternalID)
		}
		return nil, err
	}
	job.PetsCreated++
	return p, nil
}

// ImportColumns is the header row of the import template.
var ImportColumns = []string{
	"external_id", "customer_external_id", "customer_first_name", "customer_last_name", "customer_email",
	"pet_external_id", "pet_name", "pet_species", "resource_name", "service_name", "start_date", "end_date", "status", "price",
}

var requiredImportColumns = map[string]bool{
	"external_id": true, "customer_external_id": true, "pet_external_id": true, "pet_name": true,
	"service_name": true, "start_date": true, "end_date": true,
}

// ParseImportCSV reads a header row and the rows below it. Column order is free; columns are
// matched by header name. Bad rows come back as errors next to the good records.
func ParseImportCSV(r io.Reader) ([]ImportRecord, []error, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, common.NewValidationError("file", "is empty")
	}
	if err != nil {
		return nil, nil, common.NewValidationError("file", "is not valid CSV: "+err.Error())
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for col := range requiredImportColumns {
		if _, ok := index[col]; !ok {
			return nil, nil, common.NewValidationError("file", "missing column "+col)
		}
	}

	var records []ImportRecord
	var rowErrs []error
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("line %d: %v", line, err))
			continue
		}
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		rec, err := buildRecord(line, get)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("line %d: %v", line, err))
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

func buildRecord(line int, get func(string) string) (ImportRecord, error) {
	rec := ImportRecord{
		Line:               line,
		ExternalID:         get("external_id"),
		CustomerExternalID: get("customer_external_id"),
		CustomerFirstName:  get("customer_first_name"),
		CustomerLastName:   get("customer_last_name"),
		CustomerEmail:      get("customer_email"),
		PetExternalID:      get("pet_external_id"),
		PetName:            get("pet_name"),
		PetSpecies:         strings.ToUpper(get("pet_species")),
		ResourceName:       get("resource_name"),
		ServiceName:        get("service_name"),
		Status:             strings.ToUpper(get("status")),
	}
	for col := range requiredImportColumns {
		if get(col) == "" {
			return rec, fmt.Errorf("%s is required", col)
		}
	}
	if rec.CustomerFirstName == "" {
		rec.CustomerFirstName = "Imported"
	}
	if rec.CustomerLastName == "" {
		rec.CustomerLastName = "Customer " + rec.CustomerExternalID
	}
	switch rec.PetSpecies {
	case models.SpeciesDog, models.SpeciesCat, models.SpeciesOther:
	case "":
		rec.PetSpecies = models.SpeciesDog
	default:
		rec.PetSpecies = models.SpeciesOther
	}
	switch rec.Status {
	case "":
		rec.Status = models.ReservationConfirmed
	case models.ReservationPending, models.ReservationConfirmed, models.ReservationCheckedIn,
		models.ReservationCheckedOut, models.ReservationCompleted, models.ReservationCancelled:
	default:
		return rec, fmt.Errorf("unknown status %q", rec.Status)
	}

	var err error
	if rec.StartDate, err = parseImportTime(get("start_date")); err != nil {
		return rec, fmt.Errorf("start_date: %v", err)
	}
	if rec.EndDate, err = parseImportTime(get("end_date")); err != nil {
		return rec, fmt.Errorf("end_date: %v", err)
	}
	if !rec.EndDate.After(rec.StartDate) {
		return rec, fmt.Errorf("end_date must be after start_date")
	}
	if p := get("price"); p != "" {
		price, err := decimal.NewFromString(p)
		if err != nil || price.IsNegative() {
			return rec, fmt.Errorf("price %q is not a valid amount", p)
		}
		rec.Price = &price
	}
	return rec, nil
}

var importTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

func parseImportTime(v string) (time.Time, error) {
	for _, layout := range importTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a date", v)
}
