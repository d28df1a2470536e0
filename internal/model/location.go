package model

import "github.com/google/uuid"

type LocationKind string

const (
	LocationStore     LocationKind = "STORE"
	LocationWarehouse LocationKind = "WAREHOUSE"
)

type Location struct {
	BaseModel
	OrganizationID uuid.UUID    `gorm:"type:uuid;index;not null" json:"organization_id"`
	Name           string       `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Kind           LocationKind `gorm:"type:varchar(20);not null;default:'STORE'" json:"kind" validate:"required,oneof=STORE WAREHOUSE"`
	Address        string       `gorm:"type:text" json:"address"`
	IsActive       bool         `gorm:"default:true" json:"is_active"`
}
