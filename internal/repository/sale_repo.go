package repository

import (
	"time"

	"dealio-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleRepository interface {
	Create(tx *gorm.DB, sale *model.Sale) error
	FindByID(orgID, id uuid.UUID) (*model.Sale, error)
	FindByIDTx(tx *gorm.DB, orgID, id uuid.UUID) (*model.Sale, error)
	FindAll(orgID uuid.UUID, limit int) ([]model.Sale, error)
	CountForDay(tx *gorm.DB, orgID uuid.UUID, day time.Time) (int64, error)
	UpdateStatus(tx *gorm.DB, saleID uuid.UUID, from, to model.PaymentStatus, updatedBy string) (int64, error)

	RevenueBetween(orgID uuid.UUID, startDate, endDate time.Time) (decimal.Decimal, error)
	DailySales(orgID uuid.UUID, startDate, endDate time.Time) ([]DailySalesRow, error)
}

// DailySalesRow feeds the dashboard sales chart.
type DailySalesRow struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Count   int             `json:"count"`
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	return tx.Create(sale).Error
}

func (r *saleRepo) FindByID(orgID, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.Preload("Items").Preload("Items.Variant").Preload("Customer").
		First(&sale, "id = ? AND organization_id = ?", id, orgID).Error
	return &sale, err
}

func (r *saleRepo) FindByIDTx(tx *gorm.DB, orgID, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := tx.Preload("Items").
		First(&sale, "id = ? AND organization_id = ?", id, orgID).Error
	return &sale, err
}

func (r *saleRepo) FindAll(orgID uuid.UUID, limit int) ([]model.Sale, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var sales []model.Sale
	err := r.db.Preload("Items").
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Limit(limit).
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) CountForDay(tx *gorm.DB, orgID uuid.UUID, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var count int64
	err := tx.Model(&model.Sale{}).
		Where("organization_id = ? AND created_at >= ? AND created_at < ?", orgID, start, end).
		Count(&count).Error
	return count, err
}

// UpdateStatus moves the sale to a new payment status only while it still
// holds the expected one. Zero rows means a concurrent transition won the
// race; callers abort so compensating mutations roll back with them.
func (r *saleRepo) UpdateStatus(tx *gorm.DB, saleID uuid.UUID, from, to model.PaymentStatus, updatedBy string) (int64, error) {
	res := tx.Model(&model.Sale{}).
		Where("id = ? AND payment_status = ?", saleID, from).
		Updates(map[string]interface{}{
			"payment_status": to,
			"updated_by":     updatedBy,
		})
	return res.RowsAffected, res.Error
}

func (r *saleRepo) RevenueBetween(orgID uuid.UUID, startDate, endDate time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.Model(&model.Sale{}).
		Select("SUM(final_amount)").
		Where("organization_id = ? AND payment_status = ? AND created_at BETWEEN ? AND ?",
			orgID, model.PaymentCompleted, startDate, endDate).
		Scan(&total).Error
	if err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}

func (r *saleRepo) DailySales(orgID uuid.UUID, startDate, endDate time.Time) ([]DailySalesRow, error) {
	var results []DailySalesRow

	rows, err := r.db.Model(&model.Sale{}).
		Select(`DATE(created_at) as date, COALESCE(SUM(final_amount), 0) as revenue, COUNT(*) as count`).
		Where("organization_id = ? AND payment_status = ? AND created_at BETWEEN ? AND ?",
			orgID, model.PaymentCompleted, startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var row DailySalesRow
		if err := rows.Scan(&row.Date, &row.Revenue, &row.Count); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
