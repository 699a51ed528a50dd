package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/repositories"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxPhotoSize   = 10 << 20
	photoURLExpiry = time.Hour
)

var photoContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

type PetService interface {
	Create(ctx context.Context, scope tenancy.Scope, pet *models.Pet) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Pet, error)
	Update(ctx context.Context, scope tenancy.Scope, pet *models.Pet) error
	Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, scope tenancy.Scope, customerID *uuid.UUID, limit, offset int) ([]*models.Pet, int, error)
	UploadPhoto(ctx context.Context, scope tenancy.Scope, id uuid.UUID, filename string, reader io.Reader, size int64) (*models.Pet, error)
}

type petService struct {
	petRepo      repositories.PetRepository
	customerRepo repositories.CustomerRepository
	minioService MinioService
	log          *zap.Logger
}

func NewPetService(petRepo repositories.PetRepository, customerRepo repositories.CustomerRepository, minioService MinioService, log *zap.Logger) PetService {
	return &petService{
		petRepo:      petRepo,
		customerRepo: customerRepo,
		minioService: minioService,
		log:          log,
	}
}

func (s *petService) validate(ctx context.Context, scope tenancy.Scope, pet *models.Pet) error {
	pet.Name = strings.TrimSpace(pet.Name)
	if pet.Name == "" {
		return common.NewValidationError("name", "is required")
	}
	pet.Species = strings.ToUpper(pet.Species)
	switch pet.Species {
	case models.SpeciesDog, models.SpeciesCat, models.SpeciesOther:
	case "":
		pet.Species = models.SpeciesDog
	default:
		return common.NewValidationError("species", "must be DOG, CAT or OTHER")
	}
	if pet.WeightKg != nil && *pet.WeightKg <= 0 {
		return common.NewValidationError("weight_kg", "must be positive")
	}
	if _, err := s.customerRepo.GetByID(ctx, scope, pet.CustomerID); err != nil {
		if common.IsNotFound(err) {
			return common.NewValidationError("customer_id", "customer does not exist")
		}
		return err
	}
	return nil
}

func (s *petService) Create(ctx context.Context, scope tenancy.Scope, pet *models.Pet) error {
	if err := s.validate(ctx, scope, pet); err != nil {
		return err
	}
	pet.ID = uuid.New()
	pet.IsActive = true
	return s.petRepo.Create(ctx, scope, pet)
}

// GetByID returns the pet with a presigned photo URL when a photo is stored.
func (s *petService) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Pet, error) {
	pet, err := s.petRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	s.attachPhotoURL(ctx, pet)
	return pet, nil
}

func (s *petService) attachPhotoURL(ctx context.Context, pet *models.Pet) {
	if pet.PhotoObjectKey == nil {
		return
	}
	url, err := s.minioService.GetPresignedURL(ctx, *pet.PhotoObjectKey, photoURLExpiry)
	if err != nil {
		s.log.Warn("failed to presign pet photo", zap.String("pet_id", pet.ID.String()), zap.Error(err))
		return
	}
	pet.PhotoURL = url
}

func (s *petService) Update(ctx context.Context, scope tenancy.Scope, pet *models.Pet) error {
	if err := s.validate(ctx, scope, pet); err != nil {
		return err
	}
	return s.petRepo.Update(ctx, scope, pet)
}

func (s *petService) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return s.petRepo.Deactivate(ctx, scope, id)
}

func (s *petService) List(ctx context.Context, scope tenancy.Scope, customerID *uuid.UUID, limit, offset int) ([]*models.Pet, int, error) {
	return s.petRepo.List(ctx, scope, customerID, limit, offset)
}

// UploadPhoto stores an image under the tenant's prefix and replaces the previous photo.
func (s *petService) UploadPhoto(ctx context.Context, scope tenancy.Scope, id uuid.UUID, filename string, reader io.Reader, size int64) (*models.Pet, error) {
	if size <= 0 || size > maxPhotoSize {
		return nil, common.NewValidationError("photo", "must be between 1 byte and 10MB")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := photoContentTypes[ext]
	if !ok {
		return nil, common.NewValidationError("photo", "must be a jpg, png or webp image")
	}

	pet, err := s.petRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("pets/%s/%s/%s%s", scope.TenantID(), pet.ID, uuid.NewString(), ext)
	if err := s.minioService.Upload(ctx, key, reader, size, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}
	if err := s.petRepo.SetPhoto(ctx, scope, pet.ID, key); err != nil {
		_ = s.minioService.Delete(ctx, key)
		return nil, err
	}
	if pet.PhotoObjectKey != nil {
		if err := s.minioService.Delete(ctx, *pet.PhotoObjectKey); err != nil {
			s.log.Warn("failed to delete previous pet photo", zap.String("object", *pet.PhotoObjectKey), zap.Error(err))
		}
	}
	pet.PhotoObjectKey = &key
	s.attachPhotoURL(ctx, pet)
	return pet, nil
}
