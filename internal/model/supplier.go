package model

import "github.com/google/uuid"

type Supplier struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	ContactName    string    `gorm:"type:varchar(255)" json:"contact_name"`
	PhoneNumber    string    `gorm:"type:varchar(20)" json:"phone_number"`
	Email          string    `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`
	Address        string    `gorm:"type:text" json:"address"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
}
