package services

import (
	"context"
	"strings"
	"time"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/repositories"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
)

type AnnouncementService interface {
	Create(ctx context.Context, scope tenancy.Scope, announcement *models.Announcement) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Announcement, error)
	Update(ctx context.Context, scope tenancy.Scope, announcement *models.Announcement) error
	Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, scope tenancy.Scope, limit, offset int) ([]*models.Announcement, int, error)
	ListActive(ctx context.Context, scope tenancy.Scope) ([]*models.Announcement, error)
}

type announcementService struct {
	announcementRepo repositories.AnnouncementRepository
	now              func() time.Time
}

func NewAnnouncementService(announcementRepo repositories.AnnouncementRepository) AnnouncementService {
	return &announcementService{announcementRepo: announcementRepo, now: time.Now}
}

func (s *announcementService) normalize(a *models.Announcement) error {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return common.NewValidationError("title", "is required")
	}
	a.Priority = strings.ToUpper(a.Priority)
	switch a.Priority {
	case models.AnnouncementPriorityLow, models.AnnouncementPriorityNormal, models.AnnouncementPriorityUrgent:
	case "":
		a.Priority = models.AnnouncementPriorityNormal
	default:
		return common.NewValidationError("priority", "must be LOW, NORMAL or URGENT")
	}
	if a.StartsAt.IsZero() {
		a.StartsAt = s.now().UTC()
	}
	if a.EndsAt != nil && !a.EndsAt.After(a.StartsAt) {
		return common.NewValidationError("ends_at", "must be after starts_at")
	}
	return nil
}

func (s *announcementService) Create(ctx context.Context, scope tenancy.Scope, a *models.Announcement) error {
	if err := s.normalize(a); err != nil {
		return err
	}
	a.ID = uuid.New()
	a.IsActive = true
	return s.announcementRepo.Create(ctx, scope, a)
}

func (s *announcementService) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Announcement, error) {
	return s.announcementRepo.GetByID(ctx, scope, id)
}

func (s *announcementService) Update(ctx context.Context, scope tenancy.Scope, a *models.Announcement) error {
	if err := s.normalize(a); err != nil {
		return err
	}
	return s.announcementRepo.Update(ctx, scope, a)
}

func (s *announcementService) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return s.announcementRepo.Deactivate(ctx, scope, id)
}

func (s *announcementService) List(ctx context.Context, scope tenancy.Scope, limit, offset int) ([]*models.Announcement, int, error) {
	return s.announcementRepo.List(ctx, scope, limit, offset)
}

// ListActive returns the announcements showing right now.
func (s *announcementService) ListActive(ctx context.Context, scope tenancy.Scope) ([]*models.Announcement, error) {
	return s.announcementRepo.ListActive(ctx, scope, s.now())
}
