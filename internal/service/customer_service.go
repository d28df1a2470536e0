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

type CustomerService interface {
	Create(req *model.Customer, actor Actor) error
	Update(id uuid.UUID, req *model.Customer, actor Actor) (*model.Customer, error)
	Delete(id uuid.UUID, actor Actor) error
	GetAll(orgID uuid.UUID) ([]model.Customer, error)
	GetByID(orgID, id uuid.UUID) (*model.Customer, error)
	LoyaltyHistory(orgID, id uuid.UUID) ([]model.LoyaltyTransaction, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

func (s *customerService) Create(req *model.Customer, actor Actor) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperr.ValidationFields("invalid customer", validator.FieldErrors(errs))
	}

	req.OrganizationID = actor.OrganizationID
	req.CreatedBy = actor.ID.String()
	req.UpdatedBy = actor.ID.String()

	if err := s.customerRepo.Create(req); err != nil {
		return apperr.Internal("failed to create customer", err)
	}
	return nil
}

func (s *customerService) Update(id uuid.UUID, req *model.Customer, actor Actor) (*model.Customer, error) {
	existing, err := s.customerRepo.FindByID(actor.OrganizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("customer not found")
		}
		return nil, apperr.Internal("failed to load customer", err)
	}

	existing.FullName = req.FullName
	existing.PhoneNumber = req.PhoneNumber
	existing.Email = req.Email
	existing.IsActive = req.IsActive
	existing.UpdatedBy = actor.ID.String()

	if errs := validator.ValidateStruct(existing); len(errs) > 0 {
		return nil, apperr.ValidationFields("invalid customer", validator.FieldErrors(errs))
	}

	if err := s.customerRepo.Update(existing); err != nil {
		return nil, apperr.Internal("failed to update customer", err)
	}
	return existing, nil
}

func (s *customerService) Delete(id uuid.UUID, actor Actor) error {
	if _, err := s.customerRepo.FindByID(actor.OrganizationID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("customer not found")
		}
		return apperr.Internal("failed to load customer", err)
	}
	if err := s.customerRepo.Delete(actor.OrganizationID, id, actor.ID.String()); err != nil {
		return apperr.Internal("failed to delete customer", err)
	}
	return nil
}

func (s *customerService) GetAll(orgID uuid.UUID) ([]model.Customer, error) {
	return s.customerRepo.FindAll(orgID)
}

func (s *customerService) GetByID(orgID, id uuid.UUID) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("customer not found")
		}
		return nil, apperr.Internal("failed to load customer", err)
	}
	return customer, nil
}

func (s *customerService) LoyaltyHistory(orgID, id uuid.UUID) ([]model.LoyaltyTransaction, error) {
	if _, err := s.customerRepo.FindByID(orgID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("customer not found")
		}
		return nil, apperr.Internal("failed to load customer", err)
	}
	return s.customerRepo.ListLoyaltyTransactions(orgID, id)
}
