package model

import (
	"time"

	"github.com/google/uuid"
)

// StockRecord tracks quantity per (organization, location, variant).
// AvailableQuantity = CurrentQuantity - ReservedQuantity and is maintained on
// every write so the conditional decrement can test it directly.
type StockRecord struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	LocationID     uuid.UUID `gorm:"type:uuid;not null;index:idx_stock_loc_variant,unique" json:"location_id"`
	VariantID      uuid.UUID `gorm:"type:uuid;not null;index:idx_stock_loc_variant,unique" json:"variant_id"`

	CurrentQuantity   int `gorm:"not null;default:0" json:"current_quantity"`
	ReservedQuantity  int `gorm:"not null;default:0" json:"reserved_quantity"`
	AvailableQuantity int `gorm:"not null;default:0" json:"available_quantity"`
	ReorderPoint      int `gorm:"not null;default:0" json:"reorder_point"`
	ReorderQty        int `gorm:"not null;default:0" json:"reorder_qty"`

	Variant  *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
	Location *Location       `gorm:"foreignKey:LocationID" json:"location,omitempty"`
}

type MovementType string

const (
	MovementSale        MovementType = "SALE"
	MovementPurchase    MovementType = "PURCHASE"
	MovementTransferIn  MovementType = "TRANSFER_IN"
	MovementTransferOut MovementType = "TRANSFER_OUT"
	MovementAdjustment  MovementType = "ADJUSTMENT"
	MovementVoid        MovementType = "VOID"
)

// StockMovement is the append-only ledger entry paired with every quantity
// change. Rows are never updated or deleted; the repository exposes no path for
// either.
type StockMovement struct {
	BaseModel
	OrganizationID uuid.UUID    `gorm:"type:uuid;index;not null" json:"organization_id"`
	VariantID      uuid.UUID    `gorm:"type:uuid;index;not null" json:"variant_id"`
	Type           MovementType `gorm:"type:varchar(20);not null" json:"type"`
	QuantityDelta  int          `gorm:"not null" json:"quantity_delta"`

	FromLocationID *uuid.UUID `gorm:"type:uuid" json:"from_location_id,omitempty"`
	ToLocationID   *uuid.UUID `gorm:"type:uuid" json:"to_location_id,omitempty"`
	RelatedSaleID  *uuid.UUID `gorm:"type:uuid;index" json:"related_sale_id,omitempty"`

	QuantityAfter int       `json:"quantity_after"`
	Note          string    `gorm:"type:text" json:"note"`
	OccurredAt    time.Time `gorm:"not null" json:"occurred_at"`
}
