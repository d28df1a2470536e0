package service

import (
	"errors"
	"fmt"
	"time"

	"dealio-backend/internal/model"
	"dealio-backend/internal/repository"
	"dealio-backend/pkg/apperr"
	"dealio-backend/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AdjustStockRequest struct {
	LocationID uuid.UUID `json:"location_id" validate:"uuid_required"`
	VariantID  uuid.UUID `json:"variant_id" validate:"uuid_required"`
	Delta      int       `json:"delta" validate:"required"`
	Note       string    `json:"note"`
}

type TransferStockRequest struct {
	FromLocationID uuid.UUID `json:"from_location_id" validate:"uuid_required"`
	ToLocationID   uuid.UUID `json:"to_location_id" validate:"uuid_required"`
	VariantID      uuid.UUID `json:"variant_id" validate:"uuid_required"`
	Quantity       int       `json:"quantity" validate:"required,gt=0"`
	Note           string    `json:"note"`
}

type PurchaseLine struct {
	VariantID uuid.UUID `json:"variant_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type ReceivePurchaseRequest struct {
	LocationID uuid.UUID      `json:"location_id" validate:"uuid_required"`
	SupplierID *uuid.UUID     `json:"supplier_id,omitempty"`
	Lines      []PurchaseLine `json:"lines" validate:"required,min=1,dive"`
	Note       string         `json:"note"`
}

type SetReorderRequest struct {
	LocationID   uuid.UUID `json:"location_id" validate:"uuid_required"`
	VariantID    uuid.UUID `json:"variant_id" validate:"uuid_required"`
	ReorderPoint int       `json:"reorder_point" validate:"gte=0"`
	ReorderQty   int       `json:"reorder_qty" validate:"gte=0"`
}

type StockService interface {
	Adjust(req *AdjustStockRequest, actor Actor) error
	Transfer(req *TransferStockRequest, actor Actor) error
	ReceivePurchase(req *ReceivePurchaseRequest, actor Actor) error
	SetReorder(req *SetReorderRequest, actor Actor) error
	List(orgID uuid.UUID, locationID *uuid.UUID) ([]model.StockRecord, error)
	ListLow(orgID uuid.UUID) ([]model.StockRecord, error)
	ListMovements(orgID uuid.UUID, variantID *uuid.UUID, limit int) ([]model.StockMovement, error)
}

type stockService struct {
	db           *gorm.DB
	stockRepo    repository.StockRepository
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
	log          *zap.Logger
}

func NewStockService(
	db *gorm.DB,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
	log *zap.Logger,
) StockService {
	return &stockService{
		db:           db,
		stockRepo:    stockRepo,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		log:          log,
	}
}

// Adjust applies a signed correction. Negative deltas are guarded the same way
// a sale decrement is: the conditional update aborts rather than go negative.
func (s *stockService) Adjust(req *AdjustStockRequest, actor Actor) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperr.ValidationFields("invalid adjustment", validator.FieldErrors(errs))
	}
	orgID := actor.OrganizationID

	if _, err := s.productRepo.FindVariantByID(orgID, req.VariantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("variant not found")
		}
		return apperr.Internal("failed to load variant", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if req.Delta >= 0 {
			if err := s.stockRepo.Increment(tx, orgID, req.LocationID, req.VariantID, req.Delta, actor.ID.String()); err != nil {
				return apperr.Internal("stock adjustment failed", err)
			}
		} else {
			rows, err := s.stockRepo.DecrementAvailable(tx, orgID, req.LocationID, req.VariantID, -req.Delta)
			if err != nil {
				return apperr.Internal("stock adjustment failed", err)
			}
			if rows == 0 {
				return apperr.Conflict("adjustment would drive stock negative")
			}
		}

		movement := &model.StockMovement{
			OrganizationID: orgID,
			VariantID:      req.VariantID,
			Type:           model.MovementAdjustment,
			QuantityDelta:  req.Delta,
			ToLocationID:   &req.LocationID,
			Note:           req.Note,
			OccurredAt:     time.Now(),
		}
		movement.CreatedBy = actor.ID.String()
		return s.stockRepo.CreateMovement(tx, movement)
	})
}

// Transfer moves quantity between locations atomically, writing the paired
// TRANSFER_OUT / TRANSFER_IN ledger rows.
func (s *stockService) Transfer(req *TransferStockRequest, actor Actor) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperr.ValidationFields("invalid transfer", validator.FieldErrors(errs))
	}
	if req.FromLocationID == req.ToLocationID {
		return apperr.Validation("transfer requires two distinct locations")
	}
	orgID := actor.OrganizationID

	return s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.stockRepo.DecrementAvailable(tx, orgID, req.FromLocationID, req.VariantID, req.Quantity)
		if err != nil {
			return apperr.Internal("transfer decrement failed", err)
		}
		if rows == 0 {
			return apperr.Conflict("insufficient stock at source location")
		}
		if err := s.stockRepo.Increment(tx, orgID, req.ToLocationID, req.VariantID, req.Quantity, actor.ID.String()); err != nil {
			return apperr.Internal("transfer increment failed", err)
		}

		now := time.Now()
		out := &model.StockMovement{
			OrganizationID: orgID,
			VariantID:      req.VariantID,
			Type:           model.MovementTransferOut,
			QuantityDelta:  -req.Quantity,
			FromLocationID: &req.FromLocationID,
			ToLocationID:   &req.ToLocationID,
			Note:           req.Note,
			OccurredAt:     now,
		}
		out.CreatedBy = actor.ID.String()
		if err := s.stockRepo.CreateMovement(tx, out); err != nil {
			return err
		}

		in := &model.StockMovement{
			OrganizationID: orgID,
			VariantID:      req.VariantID,
			Type:           model.MovementTransferIn,
			QuantityDelta:  req.Quantity,
			FromLocationID: &req.FromLocationID,
			ToLocationID:   &req.ToLocationID,
			Note:           req.Note,
			OccurredAt:     now,
		}
		in.CreatedBy = actor.ID.String()
		return s.stockRepo.CreateMovement(tx, in)
	})
}

// ReceivePurchase books a supplier delivery in: increments per line plus one
// PURCHASE movement each.
func (s *stockService) ReceivePurchase(req *ReceivePurchaseRequest, actor Actor) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperr.ValidationFields("invalid purchase receipt", validator.FieldErrors(errs))
	}
	orgID := actor.OrganizationID

	if req.SupplierID != nil {
		if _, err := s.supplierRepo.FindByID(orgID, *req.SupplierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("supplier not found")
			}
			return apperr.Internal("failed to load supplier", err)
		}
	}

	for _, line := range req.Lines {
		if _, err := s.productRepo.FindVariantByID(orgID, line.VariantID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(fmt.Sprintf("variant %s not found", line.VariantID))
			}
			return apperr.Internal("failed to load variant", err)
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, line := range req.Lines {
			if err := s.stockRepo.Increment(tx, orgID, req.LocationID, line.VariantID, line.Quantity, actor.ID.String()); err != nil {
				return apperr.Internal("purchase receipt failed", err)
			}
			note := req.Note
			if req.SupplierID != nil {
				note = fmt.Sprintf("supplier %s; %s", req.SupplierID, req.Note)
			}
			movement := &model.StockMovement{
				OrganizationID: orgID,
				VariantID:      line.VariantID,
				Type:           model.MovementPurchase,
				QuantityDelta:  line.Quantity,
				ToLocationID:   &req.LocationID,
				Note:           note,
				OccurredAt:     now,
			}
			movement.CreatedBy = actor.ID.String()
			if err := s.stockRepo.CreateMovement(tx, movement); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *stockService) SetReorder(req *SetReorderRequest, actor Actor) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperr.ValidationFields("invalid reorder levels", validator.FieldErrors(errs))
	}
	return s.stockRepo.SetReorderLevels(actor.OrganizationID, req.LocationID, req.VariantID,
		req.ReorderPoint, req.ReorderQty, actor.ID.String())
}

func (s *stockService) List(orgID uuid.UUID, locationID *uuid.UUID) ([]model.StockRecord, error) {
	return s.stockRepo.FindByLocation(orgID, locationID)
}

func (s *stockService) ListLow(orgID uuid.UUID) ([]model.StockRecord, error) {
	return s.stockRepo.FindLowStock(orgID)
}

func (s *stockService) ListMovements(orgID uuid.UUID, variantID *uuid.UUID, limit int) ([]model.StockMovement, error) {
	return s.stockRepo.ListMovements(orgID, variantID, limit)
}
