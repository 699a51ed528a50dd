package services

import (
	"context"
	"fmt"
	"time"

	"tailtown/internal/availability"
	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/pricing"
	"tailtown/internal/repositories"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AvailabilityService answers whether a resource can take another stay.
type AvailabilityService interface {
	IsAvailable(ctx context.Context, scope tenancy.Scope, resourceID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error)
	FindConflicts(ctx context.Context, scope tenancy.Scope, resourceID uuid.UUID, start, end time.Time, exclude *uuid.UUID) ([]*models.Reservation, error)
	Check(ctx context.Context, scope tenancy.Scope, req *AvailabilityRequest) (*AvailabilityResult, error)
	Alternatives(ctx context.Context, scope tenancy.Scope, req *AvailabilityRequest) ([]availability.Suggestion, error)
}

type AvailabilityRequest struct {
	ResourceID           uuid.UUID  `json:"resource_id" validate:"required"`
	StartDate            time.Time  `json:"start_date" validate:"required"`
	EndDate              time.Time  `json:"end_date" validate:"required"`
	ExcludeReservationID *uuid.UUID `json:"exclude_reservation_id,omitempty"`
	ServiceID            *uuid.UUID `json:"service_id,omitempty"`
}

type AvailabilityResult struct {
	ResourceID     uuid.UUID                 `json:"resource_id"`
	Available      bool                      `json:"available"`
	Capacity       int                       `json:"capacity"`
	PeakLoad       int                       `json:"peak_load"`
	ConflictingIDs []uuid.UUID               `json:"conflicting_ids"`
	Alternatives   []availability.Suggestion `json:"alternatives,omitempty"`
}

type availabilityService struct {
	resourceRepo    repositories.ResourceRepository
	reservationRepo repositories.ReservationRepository
	tenantRepo      repositories.TenantRepository
	serviceRepo     repositories.ServiceRepository
	ruleRepo        repositories.RuleRepository
	searchDays      int
	maxResults      int
	now             func() time.Time
	log             *zap.Logger
}

func NewAvailabilityService(
	resourceRepo repositories.ResourceRepository,
	reservationRepo repositories.ReservationRepository,
	tenantRepo repositories.TenantRepository,
	serviceRepo repositories.ServiceRepository,
	ruleRepo repositories.RuleRepository,
	searchDays, maxResults int,
	log *zap.Logger,
) AvailabilityService {
	return &availabilityService{
		resourceRepo:    resourceRepo,
		reservationRepo: reservationRepo,
		tenantRepo:      tenantRepo,
		serviceRepo:     serviceRepo,
		ruleRepo:        ruleRepo,
		searchDays:      searchDays,
		maxResults:      maxResults,
		now:             time.Now,
		log:             log,
	}
}

func validateWindow(start, end time.Time) error {
	if start.IsZero() {
		return common.NewValidationError("start_date", "is required")
	}
	if !end.After(start) {
		return common.NewValidationError("end_date", "must be after start_date")
	}
	return nil
}

func excludeID(exclude *uuid.UUID) uuid.UUID {
	if exclude == nil {
		return uuid.Nil
	}
	return *exclude
}

func toBookings(reservations []*models.Reservation) []availability.Booking {
	out := make([]availability.Booking, len(reservations))
	for i, r := range reservations {
		out[i] = availability.Booking{ID: r.ID, Start: r.StartDate, End: r.EndDate}
	}
	return out
}

// capacityGuard rejects a booking of [start,end) that would push the resource past capacity.
func capacityGuard(start, end time.Time, buffer time.Duration) func(*models.Resource, []*models.Reservation) error {
	return func(resource *models.Resource, overlapping []*models.Reservation) error {
		if !resource.IsActive {
			return common.NewValidationError("resource_id", "resource is not active")
		}
		conflicts := availability.Conflicts(start, end, resource.Capacity, buffer, toBookings(overlapping))
		if len(conflicts) == 0 {
			return nil
		}
		return &common.ConflictError{
			Message:        fmt.Sprintf("%s is not available for the requested dates", resource.Name),
			ConflictingIDs: availability.IDs(conflicts),
		}
	}
}

// load fetches what a capacity decision needs: the resource, the tenant buffer and the overlapping stays.
func (s *availabilityService) load(ctx context.Context, scope tenancy.Scope, resourceID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (*models.Resource, time.Duration, []*models.Reservation, error) {
	if err := validateWindow(start, end); err != nil {
		return nil, 0, nil, err
	}
	resource, err := s.resourceRepo.GetByID(ctx, scope, resourceID)
	if err != nil {
		return nil, 0, nil, err
	}
	settings, err := s.tenantRepo.GetSettings(ctx, scope)
	if err != nil {
		return nil, 0, nil, err
	}
	buffer := settings.TurnoverBuffer()
	overlapping, err := s.reservationRepo.ListOverlapping(ctx, scope, []uuid.UUID{resourceID}, start, end, buffer, excludeID(exclude))
	if err != nil {
		return nil, 0, nil, err
	}
	return resource, buffer, overlapping, nil
}

func (s *availabilityService) IsAvailable(ctx context.Context, scope tenancy.Scope, resourceID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	resource, buffer, overlapping, err := s.load(ctx, scope, resourceID, start, end, exclude)
	if err != nil {
		return false, err
	}
	if !resource.IsActive {
		return false, nil
	}
	return availability.IsAvailable(start, end, resource.Capacity, buffer, toBookings(overlapping)), nil
}

// FindConflicts returns the reservations that take the resource past capacity during [start,end).
// For a single-unit resource that is every overlapping active reservation.
func (s *availabilityService) FindConflicts(ctx context.Context, scope tenancy.Scope, resourceID uuid.UUID, start, end time.Time, exclude *uuid.UUID) ([]*models.Reservation, error) {
	resource, buffer, overlapping, err := s.load(ctx, scope, resourceID, start, end, exclude)
	if err != nil {
		return nil, err
	}
	conflicting := availability.Conflicts(start, end, resource.Capacity, buffer, toBookings(overlapping))
	byID := make(map[uuid.UUID]*models.Reservation, len(overlapping))
	for _, r := range overlapping {
		byID[r.ID] = r
	}
	out := make([]*models.Reservation, 0, len(conflicting))
	for _, b := range conflicting {
		out = append(out, byID[b.ID])
	}
	return out, nil
}

func (s *availabilityService) Check(ctx context.Context, scope tenancy.Scope, req *AvailabilityRequest) (*AvailabilityResult, error) {
	resource, buffer, overlapping, err := s.load(ctx, scope, req.ResourceID, req.StartDate, req.EndDate, req.ExcludeReservationID)
	if err != nil {
		return nil, err
	}
	bookings := toBookings(overlapping)
	conflicts := availability.Conflicts(req.StartDate, req.EndDate, resource.Capacity, buffer, bookings)

	result := &AvailabilityResult{
		ResourceID:     resource.ID,
		Available:      resource.IsActive && len(conflicts) == 0,
		Capacity:       resource.Capacity,
		PeakLoad:       availability.PeakLoad(req.StartDate, req.EndDate, buffer, bookings),
		ConflictingIDs: availability.IDs(conflicts),
	}
	if !result.Available {
		if result.Alternatives, err = s.suggest(ctx, scope, resource, req, buffer); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *availabilityService) Alternatives(ctx context.Context, scope tenancy.Scope, req *AvailabilityRequest) ([]availability.Suggestion, error) {
	if err := validateWindow(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	resource, err := s.resourceRepo.GetByID(ctx, scope, req.ResourceID)
	if err != nil {
		return nil, err
	}
	settings, err := s.tenantRepo.GetSettings(ctx, scope)
	if err != nil {
		return nil, err
	}
	return s.suggest(ctx, scope, resource, req, settings.TurnoverBuffer())
}

// suggest searches active resources of the same type within the configured day range.
func (s *availabilityService) suggest(ctx context.Context, scope tenancy.Scope, resource *models.Resource, req *AvailabilityRequest, buffer time.Duration) ([]availability.Suggestion, error) {
	resources, err := s.resourceRepo.ListActiveByType(ctx, scope, resource.Type)
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return []availability.Suggestion{}, nil
	}

	ids := make([]uuid.UUID, len(resources))
	for i, r := range resources {
		ids[i] = r.ID
	}
	span := time.Duration(s.searchDays) * 24 * time.Hour
	existing, err := s.reservationRepo.ListOverlapping(ctx, scope, ids, req.StartDate.Add(-span), req.EndDate.Add(span), buffer, excludeID(req.ExcludeReservationID))
	if err != nil {
		return nil, err
	}

	byResource := make(map[uuid.UUID][]availability.Booking, len(resources))
	for _, r := range existing {
		if r.ResourceID != nil {
			byResource[*r.ResourceID] = append(byResource[*r.ResourceID], availability.Booking{ID: r.ID, Start: r.StartDate, End: r.EndDate})
		}
	}
	candidates := make([]availability.Candidate, len(resources))
	for i, r := range resources {
		candidates[i] = availability.Candidate{ResourceID: r.ID, Capacity: r.Capacity, Bookings: byResource[r.ID]}
	}

	price, err := s.windowPricer(ctx, scope, req.ServiceID, resource.Type)
	if err != nil {
		return nil, err
	}

	suggestions := availability.SuggestAlternatives(req.StartDate, req.EndDate, candidates, availability.SuggestOptions{
		SearchDays: s.searchDays,
		MaxResults: s.maxResults,
		Buffer:     buffer,
		Now:        s.now(),
		Price:      price,
	})
	if suggestions == nil {
		suggestions = []availability.Suggestion{}
	}
	return suggestions, nil
}

// windowPricer quotes shifted windows with the tenant's pricing rules when a service is given.
func (s *availabilityService) windowPricer(ctx context.Context, scope tenancy.Scope, serviceID *uuid.UUID, resourceType string) (func(start, end time.Time) decimal.Decimal, error) {
	if serviceID == nil {
		return nil, nil
	}
	service, err := s.serviceRepo.GetByID(ctx, scope, *serviceID)
	if err != nil {
		return nil, err
	}
	rules, err := s.ruleRepo.ListPricingRules(ctx, scope, true)
	if err != nil {
		return nil, err
	}
	settings, err := s.tenantRepo.GetSettings(ctx, scope)
	if err != nil {
		return nil, err
	}
	flat := derefRules(rules)
	bookedAt := s.now()
	return func(start, end time.Time) decimal.Decimal {
		quote := pricing.QuotePrice(flat, settings.PricingMatchMode, service, pricing.Draft{
			ServiceCategory: service.Category,
			ResourceType:    resourceType,
			StartDate:       start,
			EndDate:         end,
			BookedAt:        bookedAt,
		})
		return quote.Total
	}, nil
}

func derefRules[T any](rules []*T) []T {
	out := make([]T, len(rules))
	for i, r := range rules {
		out[i] = *r
	}
	return out
}
