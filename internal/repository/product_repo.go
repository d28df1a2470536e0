package repository

import (
	"dealio-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll(orgID uuid.UUID) ([]model.Product, error)
	FindByID(orgID, id uuid.UUID) (*model.Product, error)
	FindBySKU(orgID uuid.UUID, sku string) (*model.Product, error)
	Update(product *model.Product) error
	Delete(orgID, id uuid.UUID, deletedBy string) error

	Count(orgID uuid.UUID) (int64, error)

	FindVariantByID(orgID, id uuid.UUID) (*model.ProductVariant, error)
	FindVariantsByIDs(orgID uuid.UUID, ids []uuid.UUID) ([]model.ProductVariant, error)
	FindActiveVariants(orgID uuid.UUID) ([]model.ProductVariant, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindAll(orgID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.Preload("Variants").
		Where("organization_id = ?", orgID).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(orgID, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.Preload("Variants").
		First(&product, "id = ? AND organization_id = ?", id, orgID).Error
	return &product, err
}

func (r *productRepo) FindBySKU(orgID uuid.UUID, sku string) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "sku = ? AND organization_id = ?", sku, orgID).Error
	return &product, err
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(product).Error
}

func (r *productRepo) Delete(orgID, id uuid.UUID, deletedBy string) error {
	if err := r.db.Model(&model.Product{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return r.db.Delete(&model.Product{}, "id = ? AND organization_id = ?", id, orgID).Error
}

func (r *productRepo) Count(orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.Product{}).Where("organization_id = ?", orgID).Count(&count).Error
	return count, err
}

func (r *productRepo) FindVariantByID(orgID, id uuid.UUID) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	err := r.db.Preload("Product").
		First(&variant, "id = ? AND organization_id = ?", id, orgID).Error
	return &variant, err
}

func (r *productRepo) FindVariantsByIDs(orgID uuid.UUID, ids []uuid.UUID) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	err := r.db.Where("organization_id = ? AND id IN ?", orgID, ids).Find(&variants).Error
	return variants, err
}

func (r *productRepo) FindActiveVariants(orgID uuid.UUID) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	err := r.db.Preload("Product").
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Order("sku ASC").
		Find(&variants).Error
	return variants, err
}
