package model

import "github.com/shopspring/decimal"

// Organization is the tenant boundary. Every domain row carries its ID and every
// query is scoped by it.
type Organization struct {
	BaseModel
	Name     string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Currency string `gorm:"type:varchar(3);default:'KES'" json:"currency"`

	// Loyalty program settings: one point is earned per PointsPerUnit of final
	// amount; a redeemed point is worth PointRedeemValue in currency.
	PointsPerUnit    decimal.Decimal `gorm:"type:decimal(12,2);default:100" json:"points_per_unit"`
	PointRedeemValue decimal.Decimal `gorm:"type:decimal(12,2);default:1" json:"point_redeem_value"`

	// Default tax rate as a percentage, e.g. 10.00 for 10%.
	TaxRate decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"tax_rate"`
}
