package repository

import (
	"time"

	"dealio-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StockRepository interface {
	FindRecord(orgID, locationID, variantID uuid.UUID) (*model.StockRecord, error)
	FindRecordTx(tx *gorm.DB, orgID, locationID, variantID uuid.UUID) (*model.StockRecord, error)
	FindByLocation(orgID uuid.UUID, locationID *uuid.UUID) ([]model.StockRecord, error)
	FindLowStock(orgID uuid.UUID) ([]model.StockRecord, error)
	CountLowStock(orgID uuid.UUID) (int64, error)

	// DecrementAvailable performs the conditional update
	// `... WHERE available_quantity >= qty` and reports the number of rows
	// touched. Zero rows means insufficient stock; the caller must abort its
	// transaction.
	DecrementAvailable(tx *gorm.DB, orgID, locationID, variantID uuid.UUID, qty int) (int64, error)

	// Increment adds quantity, creating the record when absent.
	Increment(tx *gorm.DB, orgID, locationID, variantID uuid.UUID, qty int, createdBy string) error

	CreateMovement(tx *gorm.DB, movement *model.StockMovement) error
	ListMovements(orgID uuid.UUID, variantID *uuid.UUID, limit int) ([]model.StockMovement, error)
	MovementsBySale(saleID uuid.UUID) ([]model.StockMovement, error)
	DailyMovement(orgID uuid.UUID, startDate, endDate time.Time) ([]DailyMovementRow, error)

	SetReorderLevels(orgID, locationID, variantID uuid.UUID, point, qty int, updatedBy string) error
	Valuation(orgID uuid.UUID) (decimal.Decimal, error)
}

// DailyMovementRow feeds the dashboard stock-movement chart.
type DailyMovementRow struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) FindRecord(orgID, locationID, variantID uuid.UUID) (*model.StockRecord, error) {
	return r.FindRecordTx(r.db, orgID, locationID, variantID)
}

func (r *stockRepo) FindRecordTx(tx *gorm.DB, orgID, locationID, variantID uuid.UUID) (*model.StockRecord, error) {
	var record model.StockRecord
	err := tx.First(&record,
		"organization_id = ? AND location_id = ? AND variant_id = ?",
		orgID, locationID, variantID).Error
	return &record, err
}

func (r *stockRepo) FindByLocation(orgID uuid.UUID, locationID *uuid.UUID) ([]model.StockRecord, error) {
	var records []model.StockRecord
	q := r.db.Preload("Variant").Preload("Location").Where("organization_id = ?", orgID)
	if locationID != nil {
		q = q.Where("location_id = ?", *locationID)
	}
	err := q.Order("updated_at DESC").Find(&records).Error
	return records, err
}

func (r *stockRepo) FindLowStock(orgID uuid.UUID) ([]model.StockRecord, error) {
	var records []model.StockRecord
	err := r.db.Preload("Variant").Preload("Location").
		Where("organization_id = ? AND reorder_point > 0 AND available_quantity <= reorder_point", orgID).
		Find(&records).Error
	return records, err
}

func (r *stockRepo) CountLowStock(orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.StockRecord{}).
		Where("organization_id = ? AND reorder_point > 0 AND available_quantity <= reorder_point", orgID).
		Count(&count).Error
	return count, err
}

func (r *stockRepo) DecrementAvailable(tx *gorm.DB, orgID, locationID, variantID uuid.UUID, qty int) (int64, error) {
	result := tx.Model(&model.StockRecord{}).
		Where("organization_id = ? AND location_id = ? AND variant_id = ? AND available_quantity >= ?",
			orgID, locationID, variantID, qty).
		Updates(map[string]interface{}{
			"current_quantity":   gorm.Expr("current_quantity - ?", qty),
			"available_quantity": gorm.Expr("available_quantity - ?", qty),
		})
	return result.RowsAffected, result.Error
}

func (r *stockRepo) Increment(tx *gorm.DB, orgID, locationID, variantID uuid.UUID, qty int, createdBy string) error {
	result := tx.Model(&model.StockRecord{}).
		Where("organization_id = ? AND location_id = ? AND variant_id = ?", orgID, locationID, variantID).
		Updates(map[string]interface{}{
			"current_quantity":   gorm.Expr("current_quantity + ?", qty),
			"available_quantity": gorm.Expr("available_quantity + ?", qty),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	record := &model.StockRecord{
		OrganizationID:    orgID,
		LocationID:        locationID,
		VariantID:         variantID,
		CurrentQuantity:   qty,
		AvailableQuantity: qty,
	}
	record.CreatedBy = createdBy
	record.UpdatedBy = createdBy
	return tx.Create(record).Error
}

func (r *stockRepo) CreateMovement(tx *gorm.DB, movement *model.StockMovement) error {
	return tx.Create(movement).Error
}

func (r *stockRepo) ListMovements(orgID uuid.UUID, variantID *uuid.UUID, limit int) ([]model.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var movements []model.StockMovement
	q := r.db.Where("organization_id = ?", orgID)
	if variantID != nil {
		q = q.Where("variant_id = ?", *variantID)
	}
	err := q.Order("occurred_at DESC").Limit(limit).Find(&movements).Error
	return movements, err
}

func (r *stockRepo) MovementsBySale(saleID uuid.UUID) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := r.db.Where("related_sale_id = ?", saleID).
		Order("occurred_at ASC").Find(&movements).Error
	return movements, err
}

func (r *stockRepo) DailyMovement(orgID uuid.UUID, startDate, endDate time.Time) ([]DailyMovementRow, error) {
	var results []DailyMovementRow

	rows, err := r.db.Model(&model.StockMovement{}).
		Select(`
			DATE(occurred_at) as date,
			COALESCE(SUM(CASE WHEN quantity_delta > 0 THEN quantity_delta ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN quantity_delta < 0 THEN -quantity_delta ELSE 0 END), 0) as outbound
		`).
		Where("organization_id = ? AND occurred_at BETWEEN ? AND ?", orgID, startDate, endDate).
		Group("DATE(occurred_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var row DailyMovementRow
		if err := rows.Scan(&row.Date, &row.Inbound, &row.Outbound); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func (r *stockRepo) Valuation(orgID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.Model(&model.StockRecord{}).
		Select("SUM(stock_records.current_quantity * product_variants.unit_cost)").
		Joins("JOIN product_variants ON product_variants.id = stock_records.variant_id").
		Where("stock_records.organization_id = ?", orgID).
		Scan(&total).Error
	if err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}

func (r *stockRepo) SetReorderLevels(orgID, locationID, variantID uuid.UUID, point, qty int, updatedBy string) error {
	return r.db.Model(&model.StockRecord{}).
		Where("organization_id = ? AND location_id = ? AND variant_id = ?", orgID, locationID, variantID).
		Updates(map[string]interface{}{
			"reorder_point": point,
			"reorder_qty":   qty,
			"updated_by":    updatedBy,
		}).Error
}
