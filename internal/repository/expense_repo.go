package repository

import (
	"time"

	"dealio-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExpenseRepository interface {
	Create(expense *model.Expense) error
	FindAll(orgID uuid.UUID, startDate, endDate *time.Time) ([]model.Expense, error)
	FindByID(orgID, id uuid.UUID) (*model.Expense, error)
	Update(expense *model.Expense) error
	Delete(orgID, id uuid.UUID, deletedBy string) error
	SumBetween(orgID uuid.UUID, startDate, endDate time.Time) (decimal.Decimal, error)
}

type expenseRepo struct {
	db *gorm.DB
}

func NewExpenseRepo(db *gorm.DB) ExpenseRepository {
	return &expenseRepo{db}
}

func (r *expenseRepo) Create(expense *model.Expense) error {
	return r.db.Create(expense).Error
}

func (r *expenseRepo) FindAll(orgID uuid.UUID, startDate, endDate *time.Time) ([]model.Expense, error) {
	var expenses []model.Expense
	q := r.db.Where("organization_id = ?", orgID)
	if startDate != nil {
		q = q.Where("incurred_at >= ?", *startDate)
	}
	if endDate != nil {
		q = q.Where("incurred_at <= ?", *endDate)
	}
	err := q.Order("incurred_at DESC").Find(&expenses).Error
	return expenses, err
}

func (r *expenseRepo) FindByID(orgID, id uuid.UUID) (*model.Expense, error) {
	var expense model.Expense
	err := r.db.First(&expense, "id = ? AND organization_id = ?", id, orgID).Error
	return &expense, err
}

func (r *expenseRepo) Update(expense *model.Expense) error {
	return r.db.Save(expense).Error
}

func (r *expenseRepo) Delete(orgID, id uuid.UUID, deletedBy string) error {
	if err := r.db.Model(&model.Expense{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return r.db.Delete(&model.Expense{}, "id = ? AND organization_id = ?", id, orgID).Error
}

func (r *expenseRepo) SumBetween(orgID uuid.UUID, startDate, endDate time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.Model(&model.Expense{}).
		Select("SUM(amount)").
		Where("organization_id = ? AND incurred_at BETWEEN ? AND ?", orgID, startDate, endDate).
		Scan(&total).Error
	if err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}
