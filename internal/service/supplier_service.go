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

type SupplierService interface {
	Create(req *model.Supplier, actor Actor) error
	Update(id uuid.UUID, req *model.Supplier, actor Actor) (*model.Supplier, error)
	Delete(id uuid.UUID, actor Actor) error
	GetAll(orgID uuid.UUID) ([]model.Supplier, error)
	GetByID(orgID, id uuid.UUID) (*model.Supplier, error)
}

type supplierService struct {
	supplierRepo repository.SupplierRepository
}

func NewSupplierService(supplierRepo repository.SupplierRepository) SupplierService {
	return &supplierService{supplierRepo: supplierRepo}
}

func (s *supplierService) Create(req *model.Supplier, actor Actor) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperr.ValidationFields("invalid supplier", validator.FieldErrors(errs))
	}

	req.OrganizationID = actor.OrganizationID
	req.CreatedBy = actor.ID.String()
	req.UpdatedBy = actor.ID.String()

	if err := s.supplierRepo.Create(req); err != nil {
		return apperr.Internal("failed to create supplier", err)
	}
	return nil
}

func (s *supplierService) Update(id uuid.UUID, req *model.Supplier, actor Actor) (*model.Supplier, error) {
	existing, err := s.supplierRepo.FindByID(actor.OrganizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("supplier not found")
		}
		return nil, apperr.Internal("failed to load supplier", err)
	}

	existing.Name = req.Name
	existing.ContactName = req.ContactName
	existing.PhoneNumber = req.PhoneNumber
	existing.Email = req.Email
	existing.Address = req.Address
	existing.IsActive = req.IsActive
	existing.UpdatedBy = actor.ID.String()

	if errs := validator.ValidateStruct(existing); len(errs) > 0 {
		return nil, apperr.ValidationFields("invalid supplier", validator.FieldErrors(errs))
	}

	if err := s.supplierRepo.Update(existing); err != nil {
		return nil, apperr.Internal("failed to update supplier", err)
	}
	return existing, nil
}

func (s *supplierService) Delete(id uuid.UUID, actor Actor) error {
	if _, err := s.supplierRepo.FindByID(actor.OrganizationID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("supplier not found")
		}
		return apperr.Internal("failed to load supplier", err)
	}
	if err := s.supplierRepo.Delete(actor.OrganizationID, id, actor.ID.String()); err != nil {
		return apperr.Internal("failed to delete supplier", err)
	}
	return nil
}

func (s *supplierService) GetAll(orgID uuid.UUID) ([]model.Supplier, error) {
	return s.supplierRepo.FindAll(orgID)
}

func (s *supplierService) GetByID(orgID, id uuid.UUID) (*model.Supplier, error) {
	supplier, err := s.supplierRepo.FindByID(orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("supplier not found")
		}
		return nil, apperr.Internal("failed to load supplier", err)
	}
	return supplier, nil
}
