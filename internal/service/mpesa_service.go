package service

import (
	"context"
	"encoding/json"
	"errors"

	"dealio-backend/internal/model"
	"dealio-backend/internal/repository"
	"dealio-backend/internal/ws"
	"dealio-backend/pkg/apperr"
	"dealio-backend/pkg/mpesa"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go.uber.org/zap"
)

// STKCallback mirrors the gateway's webhook body.
type STKCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// ReceiptNumber extracts the MpesaReceiptNumber metadata item, if present.
func (cb *STKCallback) ReceiptNumber() string {
	for _, item := range cb.Body.StkCallback.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" {
			if s, ok := item.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

type InitiatePaymentRequest struct {
	Checkout    CheckoutCommand `json:"checkout" validate:"required"`
	PhoneNumber string          `json:"phone_number" validate:"required,min=10"`
}

type MpesaService interface {
	InitiatePayment(ctx context.Context, req *InitiatePaymentRequest, actor Actor) (*model.MpesaPaymentRequest, error)
	HandleCallback(cb *STKCallback) error
}

// storedCheckout is the payload persisted with a pending payment request and
// replayed when the callback confirms.
type storedCheckout struct {
	Command CheckoutCommand `json:"command"`
	Actor   struct {
		ID             uuid.UUID `json:"id"`
		OrganizationID uuid.UUID `json:"organization_id"`
		Name           string    `json:"name"`
		Email          string    `json:"email"`
	} `json:"actor"`
}

type mpesaService struct {
	mpesaRepo repository.MpesaRepository
	posSvc    POSService
	client    mpesa.Client
	hub       *ws.Hub
	log       *zap.Logger
}

func NewMpesaService(
	mpesaRepo repository.MpesaRepository,
	posSvc POSService,
	client mpesa.Client,
	hub *ws.Hub,
	log *zap.Logger,
) MpesaService {
	return &mpesaService{
		mpesaRepo: mpesaRepo,
		posSvc:    posSvc,
		client:    client,
		hub:       hub,
		log:       log,
	}
}

// InitiatePayment validates and prices the cart, fires the STK push, and
// stores the pending request keyed by the gateway's CheckoutRequestID. No
// stock is touched until the callback confirms payment.
func (s *mpesaService) InitiatePayment(ctx context.Context, req *InitiatePaymentRequest, actor Actor) (*model.MpesaPaymentRequest, error) {
	cmd := req.Checkout
	cmd.PaymentMethod = model.PayMpesa
	if cmd.ChannelKey == "" {
		cmd.ChannelKey = "pay:" + uuid.NewString()
	}

	total, err := s.posSvc.QuoteTotal(&cmd, actor.OrganizationID)
	if err != nil {
		return nil, err
	}

	// M-Pesa only accepts whole currency units; round up so the customer never
	// underpays the recorded sale.
	amount := total.Ceil().IntPart()
	if amount <= 0 {
		return nil, apperr.Validation("payment amount must be positive")
	}

	pushResp, err := s.client.STKPush(ctx, &mpesa.STKPushRequest{
		Amount:      amount,
		PhoneNumber: req.PhoneNumber,
		Reference:   "Dealio",
		Description: "POS checkout",
	})
	if err != nil {
		return nil, apperr.Internal("payment initiation failed", err)
	}

	stored := storedCheckout{Command: cmd}
	stored.Actor.ID = actor.ID
	stored.Actor.OrganizationID = actor.OrganizationID
	stored.Actor.Name = actor.Name
	stored.Actor.Email = actor.Email
	payload, err := json.Marshal(stored)
	if err != nil {
		return nil, apperr.Internal("failed to serialize checkout", err)
	}

	record := &model.MpesaPaymentRequest{
		OrganizationID:    actor.OrganizationID,
		CheckoutRequestID: pushResp.CheckoutRequestID,
		MerchantRequestID: pushResp.MerchantRequestID,
		PhoneNumber:       req.PhoneNumber,
		Amount:            total,
		Status:            model.MpesaPending,
		CheckoutPayload:   payload,
		ChannelKey:        cmd.ChannelKey,
	}
	record.CreatedBy = actor.ID.String()
	if err := s.mpesaRepo.Create(record); err != nil {
		return nil, apperr.Internal("failed to store payment request", err)
	}

	return record, nil
}

// HandleCallback processes the gateway webhook. Errors are logged, not
// returned to the gateway: the HTTP handler always acknowledges per the
// callback contract, and an unknown or duplicate callback is a no-op.
func (s *mpesaService) HandleCallback(cb *STKCallback) error {
	stk := cb.Body.StkCallback

	record, err := s.mpesaRepo.FindByCheckoutRequestID(stk.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("mpesa callback for unknown checkout request",
				zap.String("checkout_request_id", stk.CheckoutRequestID))
			return nil
		}
		return err
	}

	if record.Status != model.MpesaPending {
		s.log.Info("duplicate mpesa callback ignored",
			zap.String("checkout_request_id", stk.CheckoutRequestID))
		return nil
	}

	if stk.ResultCode != 0 {
		s.finish(record, model.MpesaFailed, stk.ResultDesc, "", nil)
		return nil
	}

	var stored storedCheckout
	if err := json.Unmarshal(record.CheckoutPayload, &stored); err != nil {
		s.finish(record, model.MpesaFailed, "stored checkout unreadable", "", nil)
		return nil
	}

	actor := Actor{
		ID:             stored.Actor.ID,
		OrganizationID: stored.Actor.OrganizationID,
		Name:           stored.Actor.Name,
		Email:          stored.Actor.Email,
	}
	sale, err := s.posSvc.ProcessSale(&stored.Command, actor)
	if err != nil {
		// Paid but not fulfilled (e.g. stock sold out while the prompt was
		// open). Park as FAILED; reconciliation refunds from the mpesa_receipt.
		s.log.Error("mpesa-paid sale failed to process",
			zap.String("checkout_request_id", stk.CheckoutRequestID), zap.Error(err))
		s.finish(record, model.MpesaFailed, "payment received but sale failed: "+err.Error(), cb.ReceiptNumber(), nil)
		return nil
	}

	s.finish(record, model.MpesaSuccess, stk.ResultDesc, cb.ReceiptNumber(), &sale.ID)
	return nil
}

func (s *mpesaService) finish(record *model.MpesaPaymentRequest, status model.MpesaRequestStatus, desc, receipt string, saleID *uuid.UUID) {
	rows, err := s.mpesaRepo.MarkResult(record.ID, status, desc, receipt, saleID)
	if err != nil {
		s.log.Error("failed to record mpesa result", zap.Error(err))
		return
	}
	if rows == 0 {
		// lost the race with another callback delivery
		return
	}

	event := map[string]interface{}{
		"type":        "payment_status",
		"status":      status,
		"result_desc": desc,
	}
	if saleID != nil {
		event["sale_id"] = saleID
	}
	if err := s.hub.Publish(record.ChannelKey, event); err != nil {
		s.log.Warn("payment status broadcast failed",
			zap.String("channel", record.ChannelKey), zap.Error(err))
	}
}
