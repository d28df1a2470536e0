package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Customer struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	FullName       string    `gorm:"type:varchar(255);not null" json:"full_name" validate:"required"`
	PhoneNumber    string    `gorm:"type:varchar(20)" json:"phone_number"`
	Email          string    `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`

	LoyaltyPoints int             `gorm:"not null;default:0" json:"loyalty_points"`
	TotalSpending decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_spending"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
}

type LoyaltyReason string

const (
	LoyaltyEarned       LoyaltyReason = "EARNED"
	LoyaltyRedeemed     LoyaltyReason = "REDEEMED"
	LoyaltyVoidReversal LoyaltyReason = "VOID_REVERSAL"
	LoyaltyRestore      LoyaltyReason = "RESTORE"
	LoyaltyManual       LoyaltyReason = "MANUAL"
)

// LoyaltyTransaction is the append-only audit trail for every earn/redeem
// event; rows are never updated after creation.
type LoyaltyTransaction struct {
	BaseModel
	OrganizationID uuid.UUID     `gorm:"type:uuid;index;not null" json:"organization_id"`
	CustomerID     uuid.UUID     `gorm:"type:uuid;index;not null" json:"customer_id"`
	PointsChange   int           `gorm:"not null" json:"points_change"`
	Reason         LoyaltyReason `gorm:"type:varchar(20);not null" json:"reason"`
	RelatedSaleID  *uuid.UUID    `gorm:"type:uuid;index" json:"related_sale_id,omitempty"`
	Note           string        `gorm:"type:text" json:"note"`
}
