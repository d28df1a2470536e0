package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index:idx_products_org_sku,unique,priority:1" json:"organization_id"`
	SKU            string    `gorm:"type:varchar(50);not null;index:idx_products_org_sku,unique,priority:2" json:"sku" validate:"required"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Category       string    `gorm:"type:varchar(100)" json:"category"`
	Unit           string    `gorm:"type:varchar(20)" json:"unit"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`

	Variants []ProductVariant `json:"variants,omitempty"`
}

// ProductVariant is the sellable SKU-level unit (size/color/pack). Stock and
// pricing live here, not on the product.
type ProductVariant struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index:idx_variants_org_sku,unique,priority:1" json:"organization_id"`
	ProductID      uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id" validate:"uuid_required"`
	Product        *Product  `json:"product,omitempty" validate:"-"`

	SKU       string          `gorm:"type:varchar(50);not null;index:idx_variants_org_sku,unique,priority:2" json:"sku" validate:"required"`
	Name      string          `gorm:"type:varchar(255)" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_cost"`
	IsActive  bool            `gorm:"default:true" json:"is_active"`
}
