package service

import (
	"context"
	"errors"
	"fmt"

	"dealio-backend/internal/model"
	"dealio-backend/internal/repository"
	"dealio-backend/pkg/apperr"
	"dealio-backend/pkg/cache"
	"dealio-backend/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProductService interface {
	Create(req *model.Product, actor Actor) error
	Update(id uuid.UUID, req *model.Product, actor Actor) (*model.Product, error)
	Delete(id uuid.UUID, actor Actor) error
	GetAll(orgID uuid.UUID) ([]model.Product, error)
	GetByID(orgID, id uuid.UUID) (*model.Product, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	cache        cache.Cache
	log          *zap.Logger
}

func NewProductService(productRepo repository.ProductRepository, locationRepo repository.LocationRepository, c cache.Cache, log *zap.Logger) ProductService {
	return &productService{
		productRepo:  productRepo,
		locationRepo: locationRepo,
		cache:        c,
		log:          log,
	}
}

func (s *productService) Create(req *model.Product, actor Actor) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperr.ValidationFields("invalid product", validator.FieldErrors(errs))
	}

	existing, _ := s.productRepo.FindBySKU(actor.OrganizationID, req.SKU)
	if existing != nil && existing.ID != uuid.Nil {
		return apperr.Conflict(fmt.Sprintf("SKU %s already exists", req.SKU))
	}

	req.OrganizationID = actor.OrganizationID
	req.CreatedBy = actor.ID.String()
	req.UpdatedBy = actor.ID.String()
	for i := range req.Variants {
		req.Variants[i].OrganizationID = actor.OrganizationID
		req.Variants[i].CreatedBy = actor.ID.String()
		req.Variants[i].UpdatedBy = actor.ID.String()
	}

	if err := s.productRepo.Create(req); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("SKU already exists")
		}
		return apperr.Internal("failed to create product", err)
	}

	s.invalidateListings(actor.OrganizationID)
	return nil
}

func (s *productService) Update(id uuid.UUID, req *model.Product, actor Actor) (*model.Product, error) {
	existing, err := s.productRepo.FindByID(actor.OrganizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Internal("failed to load product", err)
	}

	existing.Name = req.Name
	existing.SKU = req.SKU
	existing.Category = req.Category
	existing.Unit = req.Unit
	existing.IsActive = req.IsActive
	existing.UpdatedBy = actor.ID.String()

	if errs := validator.ValidateStruct(existing); len(errs) > 0 {
		return nil, apperr.ValidationFields("invalid product", validator.FieldErrors(errs))
	}

	for i := range req.Variants {
		req.Variants[i].OrganizationID = actor.OrganizationID
		req.Variants[i].ProductID = existing.ID
		if req.Variants[i].ID == uuid.Nil {
			req.Variants[i].CreatedBy = actor.ID.String()
		}
		req.Variants[i].UpdatedBy = actor.ID.String()
	}
	if len(req.Variants) > 0 {
		existing.Variants = req.Variants
	}

	if err := s.productRepo.Update(existing); err != nil {
		return nil, apperr.Internal("failed to update product", err)
	}

	s.invalidateListings(actor.OrganizationID)
	return existing, nil
}

func (s *productService) Delete(id uuid.UUID, actor Actor) error {
	if _, err := s.productRepo.FindByID(actor.OrganizationID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("product not found")
		}
		return apperr.Internal("failed to load product", err)
	}
	if err := s.productRepo.Delete(actor.OrganizationID, id, actor.ID.String()); err != nil {
		return apperr.Internal("failed to delete product", err)
	}
	s.invalidateListings(actor.OrganizationID)
	return nil
}

func (s *productService) GetAll(orgID uuid.UUID) ([]model.Product, error) {
	return s.productRepo.FindAll(orgID)
}

func (s *productService) GetByID(orgID, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Internal("failed to load product", err)
	}
	return product, nil
}

// invalidateListings drops the cached register listing for every location of
// the organization.
func (s *productService) invalidateListings(orgID uuid.UUID) {
	locations, err := s.locationRepo.FindAll(orgID)
	if err != nil {
		s.log.Warn("listing invalidation skipped", zap.Error(err))
		return
	}
	keys := make([]string, 0, len(locations))
	for _, loc := range locations {
		keys = append(keys, PosListingKey(orgID, loc.ID))
	}
	if err := s.cache.Invalidate(context.Background(), keys...); err != nil {
		s.log.Warn("listing cache invalidation failed", zap.Error(err))
	}
}
