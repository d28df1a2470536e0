package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ExpenseCategory string

const (
	ExpenseRent      ExpenseCategory = "RENT"
	ExpenseSalaries  ExpenseCategory = "SALARIES"
	ExpenseUtilities ExpenseCategory = "UTILITIES"
	ExpenseSupplies  ExpenseCategory = "SUPPLIES"
	ExpenseTransport ExpenseCategory = "TRANSPORT"
	ExpenseOther     ExpenseCategory = "OTHER"
)

type Expense struct {
	BaseModel
	OrganizationID uuid.UUID       `gorm:"type:uuid;index;not null" json:"organization_id"`
	Category       ExpenseCategory `gorm:"type:varchar(20);not null" json:"category" validate:"required,oneof=RENT SALARIES UTILITIES SUPPLIES TRANSPORT OTHER"`
	Description    string          `gorm:"type:text" json:"description"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	IncurredAt     time.Time       `gorm:"not null" json:"incurred_at"`
	SupplierID     *uuid.UUID      `gorm:"type:uuid" json:"supplier_id,omitempty"`
}
