package model

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MpesaRequestStatus string

const (
	MpesaPending MpesaRequestStatus = "PENDING"
	MpesaSuccess MpesaRequestStatus = "SUCCESS"
	MpesaFailed  MpesaRequestStatus = "FAILED"
)

// MpesaPaymentRequest correlates an initiated STK push with the checkout it
// should complete. Status moves exactly once, PENDING to SUCCESS or
// PENDING to FAILED, driven by the gateway callback.
type MpesaPaymentRequest struct {
	BaseModel
	OrganizationID    uuid.UUID          `gorm:"type:uuid;index;not null" json:"organization_id"`
	CheckoutRequestID string             `gorm:"type:varchar(100);uniqueIndex;not null" json:"checkout_request_id"`
	MerchantRequestID string             `gorm:"type:varchar(100);not null" json:"merchant_request_id"`
	PhoneNumber       string             `gorm:"type:varchar(20);not null" json:"phone_number"`
	Amount            decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status            MpesaRequestStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	ResultDesc        string             `gorm:"type:text" json:"result_desc"`
	MpesaReceipt      string             `gorm:"type:varchar(50)" json:"mpesa_receipt"`

	// The serialized checkout command, replayed when the callback reports success.
	CheckoutPayload json.RawMessage `gorm:"type:jsonb" json:"checkout_payload"`

	// Realtime channel the waiting client session listens on.
	ChannelKey string     `gorm:"type:varchar(100);not null" json:"channel_key"`
	SaleID     *uuid.UUID `gorm:"type:uuid" json:"sale_id,omitempty"`
}
