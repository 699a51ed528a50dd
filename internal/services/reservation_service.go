package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"tailtown/internal/common"
	"tailtown/internal/metrics"
	"tailtown/internal/models"
	"tailtown/internal/repositories"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ReservationService interface {
	Create(ctx context.Context, scope tenancy.Scope, req *CreateReservationRequest) (*models.Reservation, error)
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error)
	List(ctx context.Context, scope tenancy.Scope, filter models.ReservationFilter) ([]*models.Reservation, int, error)
	Update(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req *UpdateReservationRequest) (*models.Reservation, error)

	Confirm(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error)
	CheckIn(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error)
	CheckOut(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*CheckOutResult, error)
	Complete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error)
	Cancel(ctx context.Context, scope tenancy.Scope, id uuid.UUID, reason *string) (*CancelResult, error)

	ExpirePending(ctx context.Context, scope tenancy.Scope, olderThan time.Duration) (int64, error)
	CompleteCheckedOut(ctx context.Context, scope tenancy.Scope) (int64, error)
}

type CreateReservationRequest struct {
	CustomerID uuid.UUID        `json:"customer_id" validate:"required"`
	PetIDs     []uuid.UUID      `json:"pet_ids" validate:"required,min=1"`
	ResourceID *uuid.UUID       `json:"resource_id,omitempty"`
	ServiceID  uuid.UUID        `json:"service_id" validate:"required"`
	StartDate  time.Time        `json:"start_date" validate:"required"`
	EndDate    time.Time        `json:"end_date" validate:"required"`
	Status     string           `json:"status,omitempty" validate:"omitempty,oneof=PENDING CONFIRMED"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
	ExternalID *string          `json:"external_id,omitempty"`
}

// UpdateReservationRequest changes the given fields. Nil fields keep their value.
type UpdateReservationRequest struct {
	PetIDs     []uuid.UUID      `json:"pet_ids,omitempty"`
	ResourceID *uuid.UUID       `json:"resource_id,omitempty"`
	ServiceID  *uuid.UUID       `json:"service_id,omitempty"`
	StartDate  *time.Time       `json:"start_date,omitempty"`
	EndDate    *time.Time       `json:"end_date,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

type CheckOutResult struct {
	Reservation *models.Reservation `json:"reservation"`
	Invoice     *models.Invoice     `json:"invoice"`
}

type CancelResult struct {
	Reservation  *models.Reservation `json:"reservation"`
	RefundAmount decimal.Decimal     `json:"refund_amount"`
	Invoice      *models.Invoice     `json:"invoice,omitempty"`
}

type reservationService struct {
	reservationRepo repositories.ReservationRepository
	customerRepo    repositories.CustomerRepository
	petRepo         repositories.PetRepository
	serviceRepo     repositories.ServiceRepository
	tenantRepo      repositories.TenantRepository
	ruleRepo        repositories.RuleRepository
	pricingService  PricingService
	invoiceService  InvoiceService
	now             func() time.Time
	log             *zap.Logger
}

func NewReservationService(
	reservationRepo repositories.ReservationRepository,
	customerRepo repositories.CustomerRepository,
	petRepo repositories.PetRepository,
	serviceRepo repositories.ServiceRepository,
	tenantRepo repositories.TenantRepository,
	ruleRepo repositories.RuleRepository,
	pricingService PricingService,
	invoiceService InvoiceService,
	log *zap.Logger,
) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		customerRepo:    customerRepo,
		petRepo:         petRepo,
		serviceRepo:     serviceRepo,
		tenantRepo:      tenantRepo,
		ruleRepo:        ruleRepo,
		pricingService:  pricingService,
		invoiceService:  invoiceService,
		now:             time.Now,
		log:             log,
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// checkParties verifies the customer is active, owns every pet and the service is bookable.
func (s *reservationService) checkParties(ctx context.Context, scope tenancy.Scope, customerID uuid.UUID, petIDs []uuid.UUID, serviceID uuid.UUID) error {
	if len(petIDs) == 0 {
		return common.NewValidationError("pet_ids", "must contain at least one pet")
	}
	customer, err := s.customerRepo.GetByID(ctx, scope, customerID)
	if err != nil {
		return err
	}
	if !customer.IsActive {
		return common.NewValidationError("customer_id", "customer is not active")
	}
	owned, err := s.petRepo.CountOwnedBy(ctx, scope, customerID, petIDs)
	if err != nil {
		return err
	}
	if owned != len(petIDs) {
		return common.NewValidationError("pet_ids", "every pet must belong to the customer")
	}
	service, err := s.serviceRepo.GetByID(ctx, scope, serviceID)
	if err != nil {
		return err
	}
	if !service.IsActive {
		return common.NewValidationError("service_id", "service is not active")
	}
	return nil
}

func (s *reservationService) bookingCheck(ctx context.Context, scope tenancy.Scope, start, end time.Time) (*repositories.BookingCheck, error) {
	settings, err := s.tenantRepo.GetSettings(ctx, scope)
	if err != nil {
		return nil, err
	}
	buffer := settings.TurnoverBuffer()
	return &repositories.BookingCheck{Buffer: buffer, Guard: capacityGuard(start, end, buffer)}, nil
}

// quote prices r as of the moment it was booked. Stored reservations keep their
// original booking time so early-bird and first-time rules do not drift on update.
func (s *reservationService) quote(ctx context.Context, scope tenancy.Scope, r *models.Reservation, explicit *decimal.Decimal) error {
	req := &QuoteRequest{
		ServiceID:  r.ServiceID,
		ResourceID: r.ResourceID,
		CustomerID: &r.CustomerID,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		TotalCost:  explicit,
	}
	if !r.CreatedAt.IsZero() {
		bookedAt := r.CreatedAt
		req.BookedAt = &bookedAt
	}
	q, err := s.pricingService.Quote(ctx, scope, req)
	if err != nil {
		return err
	}
	r.Price = q.Price.Total
	if explicit != nil {
		r.Price = explicit.Round(2)
	}
	r.DepositAmount = q.Deposit.Amount
	r.DepositRuleID = q.Deposit.MatchedRuleID
	return nil
}

func validatePrice(price *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return common.NewValidationError("price", "cannot be negative")
	}
	return nil
}

func (s *reservationService) Create(ctx context.Context, scope tenancy.Scope, req *CreateReservationRequest) (*models.Reservation, error) {
	if err := validateWindow(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}
	status := strings.ToUpper(req.Status)
	switch status {
	case "":
		status = models.ReservationPending
	case models.ReservationPending, models.ReservationConfirmed:
	default:
		return nil, common.NewValidationError("status", "must be PENDING or CONFIRMED")
	}

	petIDs := uniqueIDs(req.PetIDs)
	if err := s.checkParties(ctx, scope, req.CustomerID, petIDs, req.ServiceID); err != nil {
		return nil, err
	}

	r := &models.Reservation{
		ID:         uuid.New(),
		CustomerID: req.CustomerID,
		PetIDs:     petIDs,
		ResourceID: req.ResourceID,
		ServiceID:  req.ServiceID,
		StartDate:  req.StartDate.UTC(),
		EndDate:    req.EndDate.UTC(),
		Status:     status,
		Notes:      req.Notes,
		ExternalID: req.ExternalID,
	}
	if err := s.quote(ctx, scope, r, req.Price); err != nil {
		return nil, err
	}

	check, err := s.bookingCheck(ctx, scope, r.StartDate, r.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.reservationRepo.Create(ctx, scope, r, check); err != nil {
		if common.IsConflict(err) {
			metrics.BookingConflicts.Inc()
		}
		return nil, err
	}
	metrics.RecordReservation("create")

	// Deposits are taken against the draft invoice, so open it now.
	if _, err := s.invoiceService.CreateFromReservation(ctx, scope, r.ID); err != nil {
		s.log.Warn("failed to open draft invoice",
			zap.String("tenant_id", scope.TenantID().String()),
			zap.String("reservation_id", r.ID.String()),
			zap.Error(err),
		)
	}
	return r, nil
}

func (s *reservationService) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, scope, id)
}

func (s *reservationService) List(ctx context.Context, scope tenancy.Scope, filter models.ReservationFilter) ([]*models.Reservation, int, error) {
	if filter.StartDate != nil && filter.EndDate != nil && !filter.EndDate.After(*filter.StartDate) {
		return nil, 0, common.NewValidationError("end_date", "must be after start_date")
	}
	if filter.Status != nil {
		st := strings.ToUpper(*filter.Status)
		switch st {
		case models.ReservationPending, models.ReservationConfirmed, models.ReservationCheckedIn,
			models.ReservationCheckedOut, models.ReservationCompleted, models.ReservationCancelled:
			filter.Status = &st
		default:
			return nil, 0, common.NewValidationError("status", "is not a valid reservation status")
		}
	}
	return s.reservationRepo.List(ctx, scope, filter)
}

// Update reschedules or reassigns a reservation that still holds capacity. Price and deposit
// are re-quoted when dates, service or resource change unless a price is given.
func (s *reservationService) Update(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req *UpdateReservationRequest) (*models.Reservation, error) {
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}
	r, err := s.reservationRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !models.IsActiveReservationStatus(r.Status) {
		return nil, &common.ConflictError{Message: "reservation can no longer be changed"}
	}

	reprice := false
	if req.StartDate != nil {
		r.StartDate = req.StartDate.UTC()
		reprice = true
	}
	if req.EndDate != nil {
		r.EndDate = req.EndDate.UTC()
		reprice = true
	}
	if req.ServiceID != nil {
		r.ServiceID = *req.ServiceID
		reprice = true
	}
	if req.ResourceID != nil {
		r.ResourceID = req.ResourceID
		reprice = true
	}
	if req.PetIDs != nil {
		r.PetIDs = uniqueIDs(req.PetIDs)
	}
	if req.Notes != nil {
		r.Notes = req.Notes
	}
	if err := validateWindow(r.StartDate, r.EndDate); err != nil {
		return nil, err
	}
	if err := s.checkParties(ctx, scope, r.CustomerID, r.PetIDs, r.ServiceID); err != nil {
		return nil, err
	}
	if reprice || req.Price != nil {
		if err := s.quote(ctx, scope, r, req.Price); err != nil {
			return nil, err
		}
	}

	check, err := s.bookingCheck(ctx, scope, r.StartDate, r.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.reservationRepo.Update(ctx, scope, r, check); err != nil {
		if common.IsConflict(err) {
			metrics.BookingConflicts.Inc()
		}
		return nil, err
	}
	metrics.RecordReservation("update")

	if reprice || req.Price != nil {
		if _, err := s.invoiceService.CreateFromReservation(ctx, scope, r.ID); err != nil {
			s.log.Warn("failed to refresh draft invoice", zap.String("reservation_id", r.ID.String()), zap.Error(err))
		}
	}
	return r, nil
}

// transition moves a reservation along the status machine. The repository only applies the
// change if the stored status is still the one read here.
func (s *reservationService) transition(ctx context.Context, scope tenancy.Scope, id uuid.UUID, to string, reason *string) (*models.Reservation, error) {
	r, err := s.reservationRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := s.move(ctx, scope, r, to, reason); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *reservationService) move(ctx context.Context, scope tenancy.Scope, r *models.Reservation, to string, reason *string) error {
	if !models.CanTransitionReservation(r.Status, to) {
		return &common.ConflictError{Message: "cannot move reservation from " + r.Status + " to " + to}
	}
	at := s.now().UTC()
	if err := s.reservationRepo.UpdateStatus(ctx, scope, r.ID, r.Status, to, at, reason); err != nil {
		return err
	}
	metrics.RecordReservation(strings.ToLower(to))

	r.Status = to
	switch to {
	case models.ReservationCheckedIn:
		r.CheckedInAt = &at
	case models.ReservationCheckedOut:
		r.CheckedOutAt = &at
	case models.ReservationCancelled:
		r.CancelledAt = &at
		r.CancellationReason = reason
	}
	return nil
}

func (s *reservationService) Confirm(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error) {
	return s.transition(ctx, scope, id, models.ReservationConfirmed, nil)
}

func (s *reservationService) CheckIn(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error) {
	return s.transition(ctx, scope, id, models.ReservationCheckedIn, nil)
}

// CheckOut ends the stay and issues its invoice.
func (s *reservationService) CheckOut(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*CheckOutResult, error) {
	r, err := s.transition(ctx, scope, id, models.ReservationCheckedOut, nil)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoiceService.CreateFromReservation(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if inv.IsEditable() {
		if inv, err = s.invoiceService.Finalize(ctx, scope, inv.ID); err != nil {
			return nil, err
		}
	}
	return &CheckOutResult{Reservation: r, Invoice: inv}, nil
}

func (s *reservationService) Complete(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error) {
	return s.transition(ctx, scope, id, models.ReservationCompleted, nil)
}

// Cancel releases the resource and settles the deposit under the refund policy of the
// rule that set it, or the tenant default. Cancelling an already cancelled reservation
// runs the settlement again, which completes one that failed part way.
func (s *reservationService) Cancel(ctx context.Context, scope tenancy.Scope, id uuid.UUID, reason *string) (*CancelResult, error) {
	r, err := s.reservationRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if r.Status != models.ReservationCancelled {
		if err := s.move(ctx, scope, r, models.ReservationCancelled, reason); err != nil {
			return nil, err
		}
	}

	policy, err := s.refundPolicy(ctx, scope, r)
	if err != nil {
		return nil, err
	}
	inv, refund, err := s.invoiceService.SettleCancellation(ctx, scope, r, policy)
	if err != nil {
		s.log.Warn("cancellation settlement failed",
			zap.String("reservation_id", r.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return &CancelResult{Reservation: r, RefundAmount: refund, Invoice: inv}, nil
}

func (s *reservationService) refundPolicy(ctx context.Context, scope tenancy.Scope, r *models.Reservation) (models.RefundPolicy, error) {
	if r.DepositRuleID != nil {
		rule, err := s.ruleRepo.GetDepositRule(ctx, scope, *r.DepositRuleID)
		if err == nil {
			return rule.RefundPolicy, nil
		}
		if !errors.Is(err, common.ErrDepositRuleNotFound) {
			return models.RefundPolicy{}, err
		}
	}
	settings, err := s.tenantRepo.GetSettings(ctx, scope)
	if err != nil {
		return models.RefundPolicy{}, err
	}
	return settings.DefaultRefundPolicy, nil
}

func (s *reservationService) ExpirePending(ctx context.Context, scope tenancy.Scope, olderThan time.Duration) (int64, error) {
	return s.reservationRepo.ExpirePending(ctx, scope, s.now().Add(-olderThan))
}

func (s *reservationService) CompleteCheckedOut(ctx context.Context, scope tenancy.Scope) (int64, error) {
	return s.reservationRepo.CompleteCheckedOut(ctx, scope, s.now())
}
