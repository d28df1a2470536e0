package repository

import (
	"dealio-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(customer *model.Customer) error
	FindAll(orgID uuid.UUID) ([]model.Customer, error)
	FindByID(orgID, id uuid.UUID) (*model.Customer, error)
	FindByIDTx(tx *gorm.DB, orgID, id uuid.UUID) (*model.Customer, error)
	Update(customer *model.Customer) error
	Delete(orgID, id uuid.UUID, deletedBy string) error

	// DeductPoints is guarded: `... WHERE loyalty_points >= points`. Zero rows
	// affected means the balance is short and the caller must abort.
	DeductPoints(tx *gorm.DB, orgID, customerID uuid.UUID, points int) (int64, error)
	AddPoints(tx *gorm.DB, orgID, customerID uuid.UUID, points int) error
	AddSpending(tx *gorm.DB, orgID, customerID uuid.UUID, amount decimal.Decimal) error

	CreateLoyaltyTransaction(tx *gorm.DB, lt *model.LoyaltyTransaction) error
	ListLoyaltyTransactions(orgID, customerID uuid.UUID) ([]model.LoyaltyTransaction, error)
	LoyaltyTransactionsBySale(saleID uuid.UUID) ([]model.LoyaltyTransaction, error)
}

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db}
}

func (r *customerRepo) Create(customer *model.Customer) error {
	return r.db.Create(customer).Error
}

func (r *customerRepo) FindAll(orgID uuid.UUID) ([]model.Customer, error) {
	var customers []model.Customer
	err := r.db.Where("organization_id = ?", orgID).Order("full_name ASC").Find(&customers).Error
	return customers, err
}

func (r *customerRepo) FindByID(orgID, id uuid.UUID) (*model.Customer, error) {
	return r.FindByIDTx(r.db, orgID, id)
}

func (r *customerRepo) FindByIDTx(tx *gorm.DB, orgID, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	err := tx.First(&customer, "id = ? AND organization_id = ?", id, orgID).Error
	return &customer, err
}

func (r *customerRepo) Update(customer *model.Customer) error {
	return r.db.Save(customer).Error
}

func (r *customerRepo) Delete(orgID, id uuid.UUID, deletedBy string) error {
	if err := r.db.Model(&model.Customer{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return r.db.Delete(&model.Customer{}, "id = ? AND organization_id = ?", id, orgID).Error
}

func (r *customerRepo) DeductPoints(tx *gorm.DB, orgID, customerID uuid.UUID, points int) (int64, error) {
	result := tx.Model(&model.Customer{}).
		Where("id = ? AND organization_id = ? AND loyalty_points >= ?", customerID, orgID, points).
		Update("loyalty_points", gorm.Expr("loyalty_points - ?", points))
	return result.RowsAffected, result.Error
}

func (r *customerRepo) AddPoints(tx *gorm.DB, orgID, customerID uuid.UUID, points int) error {
	return tx.Model(&model.Customer{}).
		Where("id = ? AND organization_id = ?", customerID, orgID).
		Update("loyalty_points", gorm.Expr("loyalty_points + ?", points)).Error
}

func (r *customerRepo) AddSpending(tx *gorm.DB, orgID, customerID uuid.UUID, amount decimal.Decimal) error {
	return tx.Model(&model.Customer{}).
		Where("id = ? AND organization_id = ?", customerID, orgID).
		Update("total_spending", gorm.Expr("total_spending + ?", amount)).Error
}

func (r *customerRepo) CreateLoyaltyTransaction(tx *gorm.DB, lt *model.LoyaltyTransaction) error {
	return tx.Create(lt).Error
}

func (r *customerRepo) ListLoyaltyTransactions(orgID, customerID uuid.UUID) ([]model.LoyaltyTransaction, error) {
	var transactions []model.LoyaltyTransaction
	err := r.db.Where("organization_id = ? AND customer_id = ?", orgID, customerID).
		Order("created_at DESC").Find(&transactions).Error
	return transactions, err
}

func (r *customerRepo) LoyaltyTransactionsBySale(saleID uuid.UUID) ([]model.LoyaltyTransaction, error) {
	var transactions []model.LoyaltyTransaction
	err := r.db.Where("related_sale_id = ?", saleID).
		Order("created_at ASC").Find(&transactions).Error
	return transactions, err
}
