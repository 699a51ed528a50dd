package handlers

import (
	"net/http"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/services"

	"github.com/labstack/echo/v4"
)

const maxPhotoSize = 10 << 20

// PetHandlers handles HTTP requests for pets
type PetHandlers struct {
	petService services.PetService
}

// NewPetHandlers creates a new pet handlers instance
func NewPetHandlers(petService services.PetService) *PetHandlers {
	return &PetHandlers{petService: petService}
}

// ListPets handles GET /api/pets
// @Summary List pets
// @Tags pets
// @Produce json
// @Param customer_id query string false "Owner"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Success 200 {object} common.ListResponse
// @Security BearerAuth
// @Router /pets [get]
func (h *PetHandlers) ListPets(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	limit, offset, err := common.PaginationFromQuery(c)
	if err != nil {
		return err
	}
	customerID, err := queryUUID(c, "customer_id")
	if err != nil {
		return err
	}

	pets, total, err := h.petService.List(c.Request().Context(), scope, customerID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, common.NewListResponse(pets, limit, offset, total))
}

// GetPet handles GET /api/pets/:id
func (h *PetHandlers) GetPet(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	pet, err := h.petService.GetByID(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pet)
}

// CreatePet handles POST /api/pets
// @Summary Create a pet
// @Tags pets
// @Accept json
// @Produce json
// @Param pet body models.Pet true "Pet"
// @Success 201 {object} models.Pet
// @Failure 400 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse "Owner not found"
// @Security BearerAuth
// @Router /pets [post]
func (h *PetHandlers) CreatePet(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var pet models.Pet
	if err := bind(c, &pet); err != nil {
		return err
	}
	if err := h.petService.Create(c.Request().Context(), scope, &pet); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, pet)
}

// UpdatePet handles PUT /api/pets/:id
func (h *PetHandlers) UpdatePet(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	pet, err := h.petService.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := bind(c, pet); err != nil {
		return err
	}
	pet.ID = id
	pet.TenantID = scope.TenantID()

	if err := h.petService.Update(ctx, scope, pet); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pet)
}

// DeletePet handles DELETE /api/pets/:id
func (h *PetHandlers) DeletePet(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	if err := h.petService.Deactivate(c.Request().Context(), scope, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadPhoto handles POST /api/pets/:id/photo (multipart field "photo")
// @Summary Upload a pet photo
// @Tags pets
// @Accept mpfd
// @Produce json
// @Param id path string true "Pet ID"
// @Param photo formData file true "Image file"
// @Success 200 {object} models.Pet
// @Failure 400 {object} common.ErrorResponse
// @Security BearerAuth
// @Router /pets/{id}/photo [post]
func (h *PetHandlers) UploadPhoto(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	file, err := c.FormFile("photo")
	if err != nil {
		return common.NewValidationError("photo", "is required")
	}
	if file.Size > maxPhotoSize {
		return common.NewValidationError("photo", "must be smaller than 10MB")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	pet, err := h.petService.UploadPhoto(c.Request().Context(), scope, id, file.Filename, src, file.Size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pet)
}
