package repository

import (
	"dealio-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(supplier *model.Supplier) error
	FindAll(orgID uuid.UUID) ([]model.Supplier, error)
	FindByID(orgID, id uuid.UUID) (*model.Supplier, error)
	Update(supplier *model.Supplier) error
	Delete(orgID, id uuid.UUID, deletedBy string) error
}

type supplierRepo struct {
	db *gorm.DB
}

func NewSupplierRepo(db *gorm.DB) SupplierRepository {
	return &supplierRepo{db}
}

func (r *supplierRepo) Create(supplier *model.Supplier) error {
	return r.db.Create(supplier).Error
}

func (r *supplierRepo) FindAll(orgID uuid.UUID) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := r.db.Where("organization_id = ?", orgID).Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

func (r *supplierRepo) FindByID(orgID, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	err := r.db.First(&supplier, "id = ? AND organization_id = ?", id, orgID).Error
	return &supplier, err
}

func (r *supplierRepo) Update(supplier *model.Supplier) error {
	return r.db.Save(supplier).Error
}

func (r *supplierRepo) Delete(orgID, id uuid.UUID, deletedBy string) error {
	if err := r.db.Model(&model.Supplier{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return r.db.Delete(&model.Supplier{}, "id = ? AND organization_id = ?", id, orgID).Error
}
