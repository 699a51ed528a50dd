package services

import (
	"context"
	"strings"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/repositories"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
)

type StaffService interface {
	Create(ctx context.Context, scope tenancy.Scope, req *CreateStaffRequest) (*models.User, error)
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req *UpdateStaffRequest) (*models.User, error)
	ChangePassword(ctx context.Context, scope tenancy.Scope, id uuid.UUID, password string) error
	Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, scope tenancy.Scope, limit, offset int) ([]*models.User, int, error)
}

type CreateStaffRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Role      string  `json:"role" validate:"required,oneof=ADMIN MANAGER STAFF"`
	Phone     *string `json:"phone,omitempty"`
	Position  *string `json:"position,omitempty"`
}

type UpdateStaffRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=ADMIN MANAGER STAFF"`
	Phone     *string `json:"phone,omitempty"`
	Position  *string `json:"position,omitempty"`
}

type staffService struct {
	userRepo repositories.UserRepository
}

func NewStaffService(userRepo repositories.UserRepository) StaffService {
	return &staffService{userRepo: userRepo}
}

func (s *staffService) Create(ctx context.Context, scope tenancy.Scope, req *CreateStaffRequest) (*models.User, error) {
	if len(req.Password) < 8 {
		return nil, common.NewValidationError("password", "must be at least 8 characters")
	}
	role := strings.ToUpper(req.Role)
	if models.RoleRank(role) == 0 {
		return nil, common.NewValidationError("role", "must be ADMIN, MANAGER or STAFF")
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		Phone:        req.Phone,
		Position:     req.Position,
		Status:       "active",
	}
	if err := s.userRepo.Create(ctx, scope, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *staffService) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, scope, id)
}

func (s *staffService) Update(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req *UpdateStaffRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Role != nil {
		role := strings.ToUpper(*req.Role)
		if models.RoleRank(role) == 0 {
			return nil, common.NewValidationError("role", "must be ADMIN, MANAGER or STAFF")
		}
		user.Role = role
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Position != nil {
		user.Position = req.Position
	}
	if err := s.userRepo.Update(ctx, scope, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *staffService) ChangePassword(ctx context.Context, scope tenancy.Scope, id uuid.UUID, password string) error {
	if len(password) < 8 {
		return common.NewValidationError("password", "must be at least 8 characters")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, scope, id, hash)
}

func (s *staffService) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return s.userRepo.Deactivate(ctx, scope, id)
}

func (s *staffService) List(ctx context.Context, scope tenancy.Scope, limit, offset int) ([]*models.User, int, error) {
	return s.userRepo.List(ctx, scope, limit, offset)
}
