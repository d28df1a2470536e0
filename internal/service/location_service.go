package service

import (
	"errors"

	"dealio-backend/internal/model"
	"dealio-backend/internal/repository"
	"dealio-backend/pkg/apperr"
	"dealio-backend/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LocationService interface {
	Create(req *model.Location, actor Actor) error
	Update(id uuid.UUID, req *model.Location, actor Actor) (*model.Location, error)
	Delete(id uuid.UUID, actor Actor) error
	GetAll(orgID uuid.UUID) ([]model.Location, error)
	GetByID(orgID, id uuid.UUID) (*model.Location, error)
}

type locationService struct {
	locationRepo repository.LocationRepository
	stockRepo    repository.StockRepository
}

func NewLocationService(locationRepo repository.LocationRepository, stockRepo repository.StockRepository) LocationService {
	return &locationService{locationRepo: locationRepo, stockRepo: stockRepo}
}

func (s *locationService) Create(req *model.Location, actor Actor) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperr.ValidationFields("invalid location", validator.FieldErrors(errs))
	}
	if req.Kind != model.LocationStore && req.Kind != model.LocationWarehouse {
		return apperr.Validation("location kind must be STORE or WAREHOUSE")
	}

	req.OrganizationID = actor.OrganizationID
	req.CreatedBy = actor.ID.String()
	req.UpdatedBy = actor.ID.String()

	if err := s.locationRepo.Create(req); err != nil {
		return apperr.Internal("failed to create location", err)
	}
	return nil
}

func (s *locationService) Update(id uuid.UUID, req *model.Location, actor Actor) (*model.Location, error) {
	existing, err := s.locationRepo.FindByID(actor.OrganizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("location not found")
		}
		return nil, apperr.Internal("failed to load location", err)
	}

	existing.Name = req.Name
	existing.Address = req.Address
	if req.Kind != "" {
		if req.Kind != model.LocationStore && req.Kind != model.LocationWarehouse {
			return nil, apperr.Validation("location kind must be STORE or WAREHOUSE")
		}
		existing.Kind = req.Kind
	}
	existing.IsActive = req.IsActive
	existing.UpdatedBy = actor.ID.String()

	if errs := validator.ValidateStruct(existing); len(errs) > 0 {
		return nil, apperr.ValidationFields("invalid location", validator.FieldErrors(errs))
	}

	if err := s.locationRepo.Update(existing); err != nil {
		return nil, apperr.Internal("failed to update location", err)
	}
	return existing, nil
}

func (s *locationService) Delete(id uuid.UUID, actor Actor) error {
	if _, err := s.locationRepo.FindByID(actor.OrganizationID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("location not found")
		}
		return apperr.Internal("failed to load location", err)
	}

	// Refuse to delete a location that still holds stock.
	records, err := s.stockRepo.FindByLocation(actor.OrganizationID, &id)
	if err != nil {
		return apperr.Internal("failed to check location stock", err)
	}
	for _, r := range records {
		if r.CurrentQuantity != 0 {
			return apperr.Conflict("location still holds stock; transfer it out first")
		}
	}

	if err := s.locationRepo.Delete(actor.OrganizationID, id, actor.ID.String()); err != nil {
		return apperr.Internal("failed to delete location", err)
	}
	return nil
}

func (s *locationService) GetAll(orgID uuid.UUID) ([]model.Location, error) {
	return s.locationRepo.FindAll(orgID)
}

func (s *locationService) GetByID(orgID, id uuid.UUID) (*model.Location, error) {
	location, err := s.locationRepo.FindByID(orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("location not found")
		}
		return nil, apperr.Internal("failed to load location", err)
	}
	return location, nil
}
