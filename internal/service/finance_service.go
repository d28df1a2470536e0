package service

import (
	"errors"
	"time"

	"dealio-backend/internal/model"
	"dealio-backend/internal/repository"
	"dealio-backend/pkg/apperr"
	"dealio-backend/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FinanceSummary is the revenue-vs-expense view over a date range.
type FinanceSummary struct {
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
	Revenue   decimal.Decimal `json:"revenue"`
	Expenses  decimal.Decimal `json:"expenses"`
	Net       decimal.Decimal `json:"net"`
}

type FinanceService interface {
	CreateExpense(req *model.Expense, actor Actor) error
	UpdateExpense(id uuid.UUID, req *model.Expense, actor Actor) (*model.Expense, error)
	DeleteExpense(id uuid.UUID, actor Actor) error
	ListExpenses(orgID uuid.UUID, startDate, endDate *time.Time) ([]model.Expense, error)
	Summary(orgID uuid.UUID, startDate, endDate time.Time) (*FinanceSummary, error)
}

type financeService struct {
	expenseRepo repository.ExpenseRepository
	saleRepo    repository.SaleRepository
}

func NewFinanceService(expenseRepo repository.ExpenseRepository, saleRepo repository.SaleRepository) FinanceService {
	return &financeService{expenseRepo: expenseRepo, saleRepo: saleRepo}
}

func (s *financeService) CreateExpense(req *model.Expense, actor Actor) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperr.ValidationFields("invalid expense", validator.FieldErrors(errs))
	}
	if !req.Amount.IsPositive() {
		return apperr.Validation("expense amount must be positive")
	}
	if req.IncurredAt.IsZero() {
		req.IncurredAt = time.Now()
	}

	req.OrganizationID = actor.OrganizationID
	req.CreatedBy = actor.ID.String()
	req.UpdatedBy = actor.ID.String()

	if err := s.expenseRepo.Create(req); err != nil {
		return apperr.Internal("failed to create expense", err)
	}
	return nil
}

func (s *financeService) UpdateExpense(id uuid.UUID, req *model.Expense, actor Actor) (*model.Expense, error) {
	existing, err := s.expenseRepo.FindByID(actor.OrganizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("expense not found")
		}
		return nil, apperr.Internal("failed to load expense", err)
	}

	existing.Category = req.Category
	existing.Description = req.Description
	existing.Amount = req.Amount
	if !req.IncurredAt.IsZero() {
		existing.IncurredAt = req.IncurredAt
	}
	existing.SupplierID = req.SupplierID
	existing.UpdatedBy = actor.ID.String()

	if errs := validator.ValidateStruct(existing); len(errs) > 0 {
		return nil, apperr.ValidationFields("invalid expense", validator.FieldErrors(errs))
	}
	if !existing.Amount.IsPositive() {
		return nil, apperr.Validation("expense amount must be positive")
	}

	if err := s.expenseRepo.Update(existing); err != nil {
		return nil, apperr.Internal("failed to update expense", err)
	}
	return existing, nil
}

func (s *financeService) DeleteExpense(id uuid.UUID, actor Actor) error {
	if _, err := s.expenseRepo.FindByID(actor.OrganizationID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("expense not found")
		}
		return apperr.Internal("failed to load expense", err)
	}
	if err := s.expenseRepo.Delete(actor.OrganizationID, id, actor.ID.String()); err != nil {
		return apperr.Internal("failed to delete expense", err)
	}
	return nil
}

func (s *financeService) ListExpenses(orgID uuid.UUID, startDate, endDate *time.Time) ([]model.Expense, error) {
	return s.expenseRepo.FindAll(orgID, startDate, endDate)
}

func (s *financeService) Summary(orgID uuid.UUID, startDate, endDate time.Time) (*FinanceSummary, error) {
	if endDate.Before(startDate) {
		return nil, apperr.Validation("end date cannot be before start date")
	}

	revenue, err := s.saleRepo.RevenueBetween(orgID, startDate, endDate)
	if err != nil {
		return nil, apperr.Internal("failed to sum revenue", err)
	}
	expenses, err := s.expenseRepo.SumBetween(orgID, startDate, endDate)
	if err != nil {
		return nil, apperr.Internal("failed to sum expenses", err)
	}

	return &FinanceSummary{
		StartDate: startDate,
		EndDate:   endDate,
		Revenue:   revenue,
		Expenses:  expenses,
		Net:       revenue.Sub(expenses),
	}, nil
}
