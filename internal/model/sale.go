package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentCompleted         PaymentStatus = "COMPLETED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentCancelled         PaymentStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PayCash  PaymentMethod = "CASH"
	PayMpesa PaymentMethod = "MPESA"
	PayCard  PaymentMethod = "CARD"
)

// CanTransitionTo enforces the payment status state machine:
// PENDING moves to COMPLETED or FAILED, COMPLETED to CANCELLED (void), and
// CANCELLED back to COMPLETED (restore). Everything else is rejected.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentCompleted || next == PaymentFailed
	case PaymentCompleted:
		return next == PaymentCancelled
	case PaymentCancelled:
		return next == PaymentCompleted
	default:
		return false
	}
}

type Sale struct {
	BaseModel
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index:idx_sales_org_number,unique,priority:1" json:"organization_id"`
	LocationID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"location_id"`
	CustomerID     *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	MemberID       uuid.UUID  `gorm:"type:uuid;not null" json:"member_id"` // staff who processed

	// Sale numbers repeat across tenants, so uniqueness is on (org, number).
	SaleNumber     string          `gorm:"type:varchar(30);not null;index:idx_sales_org_number,unique,priority:2" json:"sale_number"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"final_amount"`

	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"payment_status"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`

	PointsEarned   int `gorm:"not null;default:0" json:"points_earned"`
	PointsRedeemed int `gorm:"not null;default:0" json:"points_redeemed"`

	Items    []SaleItem `json:"items,omitempty"`
	Customer *Customer  `json:"customer,omitempty"`
}

// SaleItem is owned exclusively by one Sale.
type SaleItem struct {
	BaseModel
	SaleID    uuid.UUID `gorm:"type:uuid;index;not null" json:"sale_id"`
	VariantID uuid.UUID `gorm:"type:uuid;not null" json:"variant_id"`

	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_cost"` // for margin
	TaxAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_amount"`

	Variant *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
}
