package repository

import (
	"dealio-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MpesaRepository interface {
	Create(req *model.MpesaPaymentRequest) error
	FindByCheckoutRequestID(checkoutRequestID string) (*model.MpesaPaymentRequest, error)

	// MarkResult moves a PENDING request to its terminal status. The status
	// guard in the WHERE clause makes a duplicate callback a no-op; zero rows
	// affected reports it.
	MarkResult(id uuid.UUID, status model.MpesaRequestStatus, resultDesc, receipt string, saleID *uuid.UUID) (int64, error)
}

type mpesaRepo struct {
	db *gorm.DB
}

func NewMpesaRepo(db *gorm.DB) MpesaRepository {
	return &mpesaRepo{db}
}

func (r *mpesaRepo) Create(req *model.MpesaPaymentRequest) error {
	return r.db.Create(req).Error
}

func (r *mpesaRepo) FindByCheckoutRequestID(checkoutRequestID string) (*model.MpesaPaymentRequest, error) {
	var req model.MpesaPaymentRequest
	err := r.db.First(&req, "checkout_request_id = ?", checkoutRequestID).Error
	return &req, err
}

func (r *mpesaRepo) MarkResult(id uuid.UUID, status model.MpesaRequestStatus, resultDesc, receipt string, saleID *uuid.UUID) (int64, error) {
	updates := map[string]interface{}{
		"status":      status,
		"result_desc": resultDesc,
	}
	if receipt != "" {
		updates["mpesa_receipt"] = receipt
	}
	if saleID != nil {
		updates["sale_id"] = *saleID
	}
	result := r.db.Model(&model.MpesaPaymentRequest{}).
		Where("id = ? AND status = ?", id, model.MpesaPending).
		Updates(updates)
	return result.RowsAffected, result.Error
}
